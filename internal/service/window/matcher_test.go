package window

import (
	"testing"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMatcher_IsSendTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 15, 13, 5, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	denver := domain.Member{
		ID:            1,
		Timezone:      "America/Denver",
		LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
	}

	testCases := []struct {
		name          string
		member        domain.Member
		target        domain.Bucket
		defaultBucket bool
		want          bool
	}{
		{
			name:   "丹佛夏令时7点对应UTC13点",
			member: denver,
			target: domain.Bucket{Hour: 13, Minute: 0},
			want:   true,
		},
		{
			name:   "差一刻钟不匹配",
			member: denver,
			target: domain.Bucket{Hour: 13, Minute: 15},
			want:   false,
		},
		{
			name: "优先使用缓存的UTC偏好",
			member: domain.Member{
				ID:            2,
				Timezone:      "America/Denver",
				LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
				UTCSendTime:   &domain.Bucket{Hour: 9, Minute: 30},
			},
			target: domain.Bucket{Hour: 9, Minute: 30},
			want:   true,
		},
		{
			name: "非法缓存被忽略",
			member: domain.Member{
				ID:            3,
				Timezone:      "America/Denver",
				LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
				UTCSendTime:   &domain.Bucket{Hour: 9, Minute: 7},
			},
			target: domain.Bucket{Hour: 13, Minute: 0},
			want:   true,
		},
		{
			name:          "无时区落到默认时间桶",
			member:        domain.Member{ID: 4, LocalSendTime: &domain.SendTime{Hour: 7}},
			target:        domain.Bucket{Hour: 12, Minute: 0},
			defaultBucket: true,
			want:          true,
		},
		{
			name:   "关闭默认时间桶后无时区不匹配",
			member: domain.Member{ID: 5, LocalSendTime: &domain.SendTime{Hour: 7}},
			target: domain.Bucket{Hour: 12, Minute: 0},
			want:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewMatcher(tc.defaultBucket, clock)
			assert.Equal(t, tc.want, m.IsSendTime(tc.target, tc.member, now))
		})
	}
}

func TestMatcher_FreshBucket(t *testing.T) {
	t.Parallel()
	ref := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	m := NewMatcher(false, func() time.Time { return ref })

	member := domain.Member{
		ID:            1,
		Timezone:      "America/Denver",
		LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
		UTCSendTime:   &domain.Bucket{Hour: 13, Minute: 0},
	}
	// 冬令时下缓存已经过期
	cached, ok := m.MemberBucket(member, ref)
	assert.True(t, ok)
	assert.Equal(t, domain.Bucket{Hour: 13, Minute: 0}, cached)

	fresh, ok := m.FreshBucket(member, ref)
	assert.True(t, ok)
	assert.Equal(t, domain.Bucket{Hour: 14, Minute: 0}, fresh)

	_, ok = m.FreshBucket(domain.Member{ID: 2, Timezone: "Mars/Olympus"}, ref)
	assert.False(t, ok)
}

func TestMatcher_LocalBucket(t *testing.T) {
	t.Parallel()
	ref := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	m := NewMatcher(true, func() time.Time { return ref })

	noTimezone := domain.Member{ID: 1, LocalSendTime: &domain.SendTime{Hour: 7}}
	_, ok := m.LocalBucket(noTimezone, ref)
	assert.False(t, ok, "默认时间桶不算会员自己的时间桶")
	fallback, ok := m.FreshBucket(noTimezone, ref)
	assert.True(t, ok)
	assert.Equal(t, domain.Bucket{Hour: 11, Minute: 0}, fallback)

	_, ok = m.LocalBucket(domain.Member{ID: 2, Timezone: "America/Denver"}, ref)
	assert.False(t, ok)

	b, ok := m.LocalBucket(domain.Member{
		ID:            3,
		Timezone:      "America/Denver",
		LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
	}, ref)
	assert.True(t, ok)
	assert.Equal(t, domain.Bucket{Hour: 14, Minute: 0}, b)
}

func TestMatcher_LocalDate(t *testing.T) {
	t.Parallel()
	ref := time.Date(2025, 7, 15, 22, 30, 0, 0, time.UTC)
	m := NewMatcher(true, nil)

	testCases := []struct {
		name     string
		timezone string
		want     domain.LocalDate
	}{
		{name: "上海已经是第二天", timezone: "Asia/Shanghai", want: domain.LocalDate{Year: 2025, Month: time.July, Day: 16}},
		{name: "丹佛还是当天", timezone: "America/Denver", want: domain.LocalDate{Year: 2025, Month: time.July, Day: 15}},
		{name: "无时区按UTC", timezone: "", want: domain.LocalDate{Year: 2025, Month: time.July, Day: 15}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, m.LocalDate(domain.Member{Timezone: tc.timezone}, ref))
		})
	}
}
