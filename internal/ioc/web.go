package ioc

import (
	"time"

	"gitee.com/flycash/push-scheduler/internal/pkg/ratelimit"
	"gitee.com/flycash/push-scheduler/internal/web"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
	"github.com/redis/go-redis/v9"
)

func InitWebServer(h *web.Handler) *egin.Component {
	server := egin.Load("server.http").Build()
	h.PrivateRoutes(server.Engine)
	return server
}

// InitTriggerLimiter 限制手动触发的频率
func InitTriggerLimiter(rdb *redis.Client) ratelimit.Limiter {
	type Config struct {
		Interval time.Duration `yaml:"interval"`
		Rate     int           `yaml:"rate"`
	}
	cfg := Config{Interval: time.Minute, Rate: 10}
	if err := econf.UnmarshalKey("ratelimit.trigger", &cfg); err != nil {
		panic(err)
	}
	return ratelimit.NewRedisSlidingWindowLimiter(rdb, cfg.Interval, cfg.Rate)
}
