package domain

// ResultKind 单个会员处理结果的类型
type ResultKind string

const (
	ResultNoPreference ResultKind = "NO_PREFERENCE" // 推导不出发送时间
	ResultNoWindow     ResultKind = "NO_WINDOW"     // 不在本次窗口
	ResultNoContent    ResultKind = "NO_CONTENT"    // 当天没有内容
	ResultMatched      ResultKind = "MATCHED"       // 命中窗口但没有推送，原因见 Reason
	ResultDispatched   ResultKind = "DISPATCHED"    // 发起了推送
	ResultFailed       ResultKind = "FAILED"        // 意外错误
)

// ResultKind 为 ResultMatched 时的原因
const (
	ReasonDryRun         = "dry_run"
	ReasonNoDeviceTokens = "no_device_tokens"
	ReasonAlreadyPushed  = "already_pushed"
)

// MemberResult 单个会员一次调度的结果，不落库，只用于汇总报告
type MemberResult struct {
	MemberID       int64
	Kind           ResultKind
	Reason         string
	Errors         []string
	DeliveryUnitID uint64
	SuccessCount   int
	FailureCount   int
	PrunedTokens   []string
}

func NoPreference(memberID int64) MemberResult {
	return MemberResult{MemberID: memberID, Kind: ResultNoPreference, Errors: []string{"no preference"}}
}

func NoWindow(memberID int64) MemberResult {
	return MemberResult{MemberID: memberID, Kind: ResultNoWindow}
}

func NoContent(memberID int64) MemberResult {
	return MemberResult{MemberID: memberID, Kind: ResultNoContent, Errors: []string{"no content for date"}}
}

func Matched(memberID int64, reason string, unitID uint64) MemberResult {
	return MemberResult{MemberID: memberID, Kind: ResultMatched, Reason: reason, DeliveryUnitID: unitID}
}

func Failed(memberID int64, err error) MemberResult {
	return MemberResult{MemberID: memberID, Kind: ResultFailed, Errors: []string{err.Error()}}
}

// IsSendTimeWindow 会员是否命中了本次窗口
func (r MemberResult) IsSendTimeWindow() bool {
	switch r.Kind {
	case ResultNoContent, ResultMatched, ResultDispatched:
		return true
	case ResultFailed:
		return r.DeliveryUnitID != 0
	default:
		return false
	}
}

// Attempted 是否真的调用了推送供应商
func (r MemberResult) Attempted() bool {
	return r.Kind == ResultDispatched
}

// AtLeastOneSuccess 至少有一台设备推送成功
func (r MemberResult) AtLeastOneSuccess() bool {
	return r.Kind == ResultDispatched && r.SuccessCount > 0
}

// Success 这个会员的处理是否算成功
func (r MemberResult) Success() bool {
	switch r.Kind {
	case ResultNoWindow, ResultMatched:
		return true
	case ResultDispatched:
		return r.SuccessCount > 0
	default:
		return false
	}
}
