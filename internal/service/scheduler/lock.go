package scheduler

import (
	"context"
	"time"

	"github.com/meoying/dlock-go"
)

const lockTimeout = time.Second * 3

// WindowLocker 保证同一个 (日期, 时间桶) 同一时刻只有一次调度在执行
type WindowLocker interface {
	// TryLock 拿不到锁时返回错误，拿到锁后返回释放函数
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error)
}

type dlocker struct {
	client dlock.Client
}

// NewDLocker 基于分布式锁的实现
func NewDLocker(client dlock.Client) WindowLocker {
	return &dlocker{client: client}
}

func (d *dlocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	lock, err := d.client.NewLock(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	// 不区分锁被别人持有还是系统错误
	if err = lock.Lock(lockCtx); err != nil {
		return nil, err
	}
	return lock.Unlock, nil
}
