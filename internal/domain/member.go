package domain

import (
	"time"

	"github.com/ecodeclub/ekit/slice"
)

// Member 会员。核心逻辑只读写其中发送时间、设备令牌和主题订阅相关的字段
type Member struct {
	ID       int64
	Timezone string // IANA 时区名，可以为空
	// LocalSendTime 本地偏好发送时间，nil 表示未配置
	LocalSendTime *SendTime
	// UTCSendTime 由 LocalSendTime + Timezone 推导出来的缓存，可能缺失或者落后一个窗口
	UTCSendTime        *Bucket
	DeviceTokens       []string
	TopicSubscriptions []string
	Ctime              time.Time
	Utime              time.Time
}

func (m Member) HasDeviceTokens() bool {
	return len(m.DeviceTokens) > 0
}

// PruneTokens 从会员的设备令牌中删除 invalid，返回真正被删掉的令牌
func (m *Member) PruneTokens(invalid []string) []string {
	if len(invalid) == 0 || len(m.DeviceTokens) == 0 {
		return nil
	}
	removed := slice.IntersectSet(m.DeviceTokens, invalid)
	if len(removed) == 0 {
		return nil
	}
	// FilterDelete 会原地修改底层数组，先复制一份
	tokens := make([]string, len(m.DeviceTokens))
	copy(tokens, m.DeviceTokens)
	m.DeviceTokens = slice.FilterDelete(tokens, func(_ int, src string) bool {
		return slice.Contains(removed, src)
	})
	return removed
}

// AddDeviceToken 添加设备令牌，已存在时返回 false
func (m *Member) AddDeviceToken(token string) bool {
	if slice.Contains(m.DeviceTokens, token) {
		return false
	}
	m.DeviceTokens = append(m.DeviceTokens, token)
	return true
}

// MemberCursor 分页扫描用的稳定游标，按 (Ctime, ID) 单调递增
type MemberCursor struct {
	Ctime int64
	ID    int64
}

func (c MemberCursor) Next(m Member) MemberCursor {
	return MemberCursor{Ctime: m.Ctime.UnixMilli(), ID: m.ID}
}

// MemberFilter 扫描时下推到存储层的过滤条件
type MemberFilter struct {
	// WithDeviceTokensOnly 只扫描有设备令牌的会员
	WithDeviceTokensOnly bool
	// WithPreferenceOnly 只扫描配置了发送时间的会员
	WithPreferenceOnly bool
}
