package domain

// PushCode 推送供应商返回的单个令牌的错误码
type PushCode string

const (
	PushCodeTokenNotRegistered PushCode = "registration-token-not-registered"
	PushCodeInvalidToken       PushCode = "invalid-registration-token"
	PushCodeInvalidArgument    PushCode = "invalid-argument"
	PushCodeUnavailable        PushCode = "unavailable"
	PushCodeQuotaExceeded      PushCode = "quota-exceeded"
	PushCodeInternal           PushCode = "internal-error"
	PushCodeUnknown            PushCode = "unknown-error"
)

// Terminal 令牌已经失效，需要从会员身上删掉。
// invalid-argument 也可能是消息体的问题，不算令牌失效
func (c PushCode) Terminal() bool {
	switch c {
	case PushCodeTokenNotRegistered, PushCodeInvalidToken:
		return true
	default:
		return false
	}
}

// TokenFailure 某个令牌发送失败
type TokenFailure struct {
	Index int
	Token string
	Code  PushCode
}

// BatchResult 多播或者主题订阅的批量结果
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Failures     []TokenFailure
}

// InvalidTokens 返回需要删除的令牌
func (r BatchResult) InvalidTokens() []string {
	var res []string
	for _, f := range r.Failures {
		if f.Code.Terminal() {
			res = append(res, f.Token)
		}
	}
	return res
}

// Merge 合并分片发送的结果，offset 是分片在原始令牌列表中的起始下标
func (r BatchResult) Merge(other BatchResult, offset int) BatchResult {
	r.SuccessCount += other.SuccessCount
	r.FailureCount += other.FailureCount
	for _, f := range other.Failures {
		f.Index += offset
		r.Failures = append(r.Failures, f)
	}
	return r
}
