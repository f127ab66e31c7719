package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// 多实例部署时只有抢到锁的实例执行 biz，比如消费调度触发消息

const (
	defaultTimeout  = time.Second * 3
	defaultInterval = time.Minute
)

type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	// 锁的过期时间，也是抢锁失败后的等待时间
	interval time.Duration
	logger   *elog.Component
	biz      func(ctx context.Context) error
}

// NewInfiniteLoop biz 会被反复调用，ctx 被取消后退出
func NewInfiniteLoop(dclient dlock.Client, biz func(ctx context.Context) error, key string) *InfiniteLoop {
	return &InfiniteLoop{
		dclient:  dclient,
		key:      key,
		interval: defaultInterval,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
		biz:      biz,
	}
}

// WithInterval 修改锁的过期时间
func (l *InfiniteLoop) WithInterval(interval time.Duration) *InfiniteLoop {
	if interval > 0 {
		l.interval = interval
	}
	return l
}

// Run 当 ctx 被取消的时候，就会退出
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.interval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		// 锁被别的实例持有或者系统出错，都等一会再抢
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			l.logger.Debug("没有抢到分布式锁", elog.FieldErr(err))
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		err = l.bizLoop(ctx, lock)
		if err != nil {
			l.logger.Error("任务循环中断", elog.FieldErr(err))
		}
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // 原始 ctx 可能已被取消，但仍需尝试解锁
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) || errors.Is(ctxErr, context.DeadlineExceeded) {
			l.logger.Info("任务被取消，退出任务循环")
			return
		}
		if !l.sleep(ctx) {
			return
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		if err := l.biz(ctx); err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err := lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}
	}
}

// sleep 返回 false 表示 ctx 已经结束
func (l *InfiniteLoop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
