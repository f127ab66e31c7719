package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitee.com/flycash/push-scheduler/internal/errs"
)

// QuarterMinutes 一个时间桶的宽度
const QuarterMinutes = 15

// Bucket 15分钟精度的时间桶，Minute 只可能是 0/15/30/45
type Bucket struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// BucketOf 把时间戳向下取整到所在的时间桶，使用时间戳自身的时区
func BucketOf(t time.Time) Bucket {
	return Bucket{
		Hour:   t.Hour(),
		Minute: t.Minute() / QuarterMinutes * QuarterMinutes,
	}
}

// DefaultBucket 没有时区的会员使用的兜底时间桶：当前 UTC 小时减一，分钟取当前所在刻钟。
// 定时触发的目标是当前时间桶，和它永远差一个小时，所以这些会员只有手动指定
// sendTimeUTC 的触发才会命中。这是占位策略
func DefaultBucket(now time.Time) Bucket {
	b := BucketOf(now.UTC())
	b.Hour = (b.Hour + 23) % 24
	return b
}

func (b Bucket) Equal(other Bucket) bool {
	return b.Hour == other.Hour && b.Minute == other.Minute
}

func (b Bucket) Validate() error {
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("%w: Hour = %d", errs.ErrInvalidParameter, b.Hour)
	}
	if !isQuarter(b.Minute) {
		return fmt.Errorf("%w: Minute = %d", errs.ErrInvalidParameter, b.Minute)
	}
	return nil
}

// Topic 时间桶对应的广播主题名，格式为 prefix_<hour>_<minute>
func (b Bucket) Topic(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, b.Hour, b.Minute)
}

func (b Bucket) String() string {
	return fmt.Sprintf("%02d:%02d", b.Hour, b.Minute)
}

// ParseTopicBucket 从主题名里解析时间桶，不是该前缀的主题返回 false
func ParseTopicBucket(prefix, topic string) (Bucket, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"_")
	if !ok {
		return Bucket{}, false
	}
	hourStr, minuteStr, ok := strings.Cut(rest, "_")
	if !ok {
		return Bucket{}, false
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return Bucket{}, false
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return Bucket{}, false
	}
	b := Bucket{Hour: hour, Minute: minute}
	if b.Validate() != nil {
		return Bucket{}, false
	}
	return b, true
}

// SendTime 会员在本地时区里偏好的发送时间
type SendTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (s SendTime) Validate() error {
	return Bucket(s).Validate()
}

// LoadTimezone 加载会员时区，空字符串和 Local 都视为无法识别
func LoadTimezone(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownTimezone, timezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownTimezone, timezone)
	}
	return loc, nil
}

// UTCBucketForMember 在 ref 当天（会员时区里的日期）构造本地时间，再换算成 UTC 时间桶
func UTCBucketForMember(local SendTime, timezone string, ref time.Time) (Bucket, error) {
	if err := local.Validate(); err != nil {
		return Bucket{}, err
	}
	loc, err := LoadTimezone(timezone)
	if err != nil {
		return Bucket{}, err
	}
	y, m, d := ref.In(loc).Date()
	moment := time.Date(y, m, d, local.Hour, local.Minute, 0, 0, loc)
	return BucketOf(moment.UTC()), nil
}

// LocalSendTimeForUTCBucket 是 UTCBucketForMember 的逆运算
func LocalSendTimeForUTCBucket(b Bucket, timezone string, ref time.Time) (SendTime, error) {
	if err := b.Validate(); err != nil {
		return SendTime{}, err
	}
	loc, err := LoadTimezone(timezone)
	if err != nil {
		return SendTime{}, err
	}
	y, m, d := ref.UTC().Date()
	moment := time.Date(y, m, d, b.Hour, b.Minute, 0, 0, time.UTC).In(loc)
	return SendTime{Hour: moment.Hour(), Minute: moment.Minute()}, nil
}

func isQuarter(minute int) bool {
	return minute >= 0 && minute < 60 && minute%QuarterMinutes == 0
}
