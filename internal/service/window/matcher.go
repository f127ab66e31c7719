package window

import (
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"github.com/gotomicro/ego/core/elog"
)

// Matcher 判断会员当前是否处于发送窗口
type Matcher interface {
	// MemberBucket 返回会员在 ref 当天对应的 UTC 时间桶，优先使用缓存的 UTC 偏好
	MemberBucket(member domain.Member, ref time.Time) (domain.Bucket, bool)
	// FreshBucket 忽略缓存，按本地偏好和时区重新计算
	FreshBucket(member domain.Member, ref time.Time) (domain.Bucket, bool)
	// LocalBucket 和 FreshBucket 一样，但是不会落到默认时间桶
	LocalBucket(member domain.Member, ref time.Time) (domain.Bucket, bool)
	IsSendTime(target domain.Bucket, member domain.Member, ref time.Time) bool
	// LocalDate 会员时区下 ref 所在的日期，时区缺失时按 UTC
	LocalDate(member domain.Member, ref time.Time) domain.LocalDate
}

type matcher struct {
	// 没有时区或偏好的会员是否落到默认时间桶
	defaultBucket bool
	clock         func() time.Time
	logger        *elog.Component
}

// NewMatcher clock 为 nil 时使用 time.Now
func NewMatcher(defaultBucket bool, clock func() time.Time) Matcher {
	if clock == nil {
		clock = time.Now
	}
	return &matcher{
		defaultBucket: defaultBucket,
		clock:         clock,
		logger:        elog.DefaultLogger,
	}
}

func (m *matcher) MemberBucket(member domain.Member, ref time.Time) (domain.Bucket, bool) {
	if member.UTCSendTime != nil && member.UTCSendTime.Validate() == nil {
		return *member.UTCSendTime, true
	}
	return m.FreshBucket(member, ref)
}

func (m *matcher) FreshBucket(member domain.Member, ref time.Time) (domain.Bucket, bool) {
	if b, ok := m.LocalBucket(member, ref); ok {
		return b, true
	}
	if m.defaultBucket {
		return domain.DefaultBucket(m.clock()), true
	}
	return domain.Bucket{}, false
}

func (m *matcher) LocalBucket(member domain.Member, ref time.Time) (domain.Bucket, bool) {
	if member.LocalSendTime == nil {
		return domain.Bucket{}, false
	}
	b, err := domain.UTCBucketForMember(*member.LocalSendTime, member.Timezone, ref)
	if err != nil {
		m.logger.Debug("无法计算会员发送时间桶",
			elog.Int64("memberID", member.ID),
			elog.String("timezone", member.Timezone),
			elog.FieldErr(err))
		return domain.Bucket{}, false
	}
	return b, true
}

func (m *matcher) IsSendTime(target domain.Bucket, member domain.Member, ref time.Time) bool {
	b, ok := m.MemberBucket(member, ref)
	return ok && b.Equal(target)
}

func (m *matcher) LocalDate(member domain.Member, ref time.Time) domain.LocalDate {
	loc, err := domain.LoadTimezone(member.Timezone)
	if err != nil {
		return domain.LocalDateOf(ref.UTC())
	}
	return domain.LocalDateOf(ref.In(loc))
}
