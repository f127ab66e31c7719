package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	//go:embed lua/slide_window.lua
	slidingWindowScript string

	_ Limiter = (*RedisSlidingWindowLimiter)(nil)
)

// RedisSlidingWindowLimiter 多实例共享的滑动窗口限流
type RedisSlidingWindowLimiter struct {
	cmd       redis.Cmdable
	interval  time.Duration
	rate      int
	keyPrefix string
	seq       atomic.Int64
}

// NewRedisSlidingWindowLimiter interval 内最多放行 rate 个请求
func NewRedisSlidingWindowLimiter(cmd redis.Cmdable, interval time.Duration, rate int) *RedisSlidingWindowLimiter {
	return &RedisSlidingWindowLimiter{
		cmd:       cmd,
		interval:  interval,
		rate:      rate,
		keyPrefix: "push_scheduler:ratelimit:",
	}
}

func (r *RedisSlidingWindowLimiter) Limit(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMilli()
	// 同一毫秒内的多个请求要落成不同的成员
	member := fmt.Sprintf("%d-%d", now, r.seq.Add(1))
	return r.cmd.Eval(ctx, slidingWindowScript,
		[]string{r.keyPrefix + key},
		r.interval.Milliseconds(),
		r.rate,
		now,
		member,
	).Bool()
}
