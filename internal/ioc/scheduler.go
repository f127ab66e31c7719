package ioc

import (
	"time"

	"gitee.com/flycash/push-scheduler/internal/service/scheduler"
	"gitee.com/flycash/push-scheduler/internal/service/window"
	"github.com/gotomicro/ego/core/econf"
)

func InitSchedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	if err := econf.UnmarshalKey("scheduler", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func InitMatcher(cfg scheduler.Config) window.Matcher {
	return window.NewMatcher(cfg.DefaultBucket, time.Now)
}

// InitClock 业务代码都通过注入的时钟取当前时间
func InitClock() func() time.Time {
	return time.Now
}
