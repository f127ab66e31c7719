package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/errs"
)

// DateComponents 触发消息里携带的系统日期，用于指定参考日
type DateComponents struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (d DateComponents) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, time.UTC)
}

// Trigger 一次调度的触发参数
type Trigger struct {
	DryRun bool `json:"dryRun"`
	// SendTimeUTC 为空时使用当前时间所在的时间桶
	SendTimeUTC *Bucket `json:"sendTimeUTC,omitempty"`
	// SystemDate 为空时使用当前时间作为参考日
	SystemDate *DateComponents `json:"systemDateObject,omitempty"`
}

// ScheduledTrigger 定时任务在投递时就固定目标时间桶和参考时间，消费延迟不会让它跑到下一个窗口
func ScheduledTrigger(now time.Time) Trigger {
	now = now.UTC()
	b := BucketOf(now)
	return Trigger{
		SendTimeUTC: &b,
		SystemDate: &DateComponents{
			Year:   now.Year(),
			Month:  int(now.Month()),
			Day:    now.Day(),
			Hour:   now.Hour(),
			Minute: now.Minute(),
		},
	}
}

func (t Trigger) Validate() error {
	if t.SendTimeUTC != nil {
		if err := t.SendTimeUTC.Validate(); err != nil {
			return err
		}
	}
	if t.SystemDate != nil {
		d := t.SystemDate
		if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
			return fmt.Errorf("%w: systemDateObject = %+v", errs.ErrInvalidParameter, *d)
		}
	}
	return nil
}

// Resolve 根据当前时间补全目标时间桶和参考时间，SystemDate 存在时代替当前时间
func (t Trigger) Resolve(now time.Time) (Bucket, time.Time) {
	ref := now.UTC()
	if t.SystemDate != nil {
		ref = t.SystemDate.Time()
	}
	target := BucketOf(ref)
	if t.SendTimeUTC != nil {
		target = *t.SendTimeUTC
	}
	return target, ref
}
