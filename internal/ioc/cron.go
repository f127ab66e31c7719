package ioc

import (
	"context"
	"sync"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/task/ecron"
	"github.com/meoying/dlock-go"
)

const cronLockKey = "push_scheduler:cron:trigger"

// Crons 每 15 分钟投递一条正式的触发消息，投递时就固定目标时间桶。
// 没有配置 cron.trigger 时不启用，由外部系统负责触发。
// 开启 enableDistributedTask 后多个实例里只有拿到锁的那个会投递
func Crons(producer trigger.TriggerEventProducer, dclient dlock.Client, clock func() time.Time) []ecron.Ecron {
	if econf.GetString("cron.trigger.spec") == "" {
		return nil
	}
	opts := []ecron.Option{ecron.WithJob(newTriggerJob(producer, clock))}
	if econf.GetBool("cron.trigger.enableDistributedTask") {
		opts = append(opts, ecron.WithLock(newCronLock(dclient, cronLockKey)))
	}
	c := ecron.Load("cron.trigger").Build(opts...)
	return []ecron.Ecron{c}
}

func newTriggerJob(producer trigger.TriggerEventProducer, clock func() time.Time) ecron.FuncJob {
	return func(ctx context.Context) error {
		return producer.Produce(ctx, domain.ScheduledTrigger(clock()))
	}
}

// cronLock 把 dlock 适配成 ecron.Lock，ttl 在每次抢锁时确定
type cronLock struct {
	client dlock.Client
	key    string

	mu   sync.Mutex
	lock dlock.Lock
}

func newCronLock(client dlock.Client, key string) *cronLock {
	return &cronLock{client: client, key: key}
}

func (c *cronLock) Lock(ctx context.Context, ttl time.Duration) error {
	l, err := c.client.NewLock(ctx, c.key, ttl)
	if err != nil {
		return err
	}
	if err = l.Lock(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.lock = l
	c.mu.Unlock()
	return nil
}

func (c *cronLock) Unlock(ctx context.Context) error {
	c.mu.Lock()
	l := c.lock
	c.lock = nil
	c.mu.Unlock()
	// 没有抢到过锁
	if l == nil {
		return nil
	}
	return l.Unlock(ctx)
}

// Refresh 续约时沿用抢锁时的 ttl
func (c *cronLock) Refresh(ctx context.Context, _ time.Duration) error {
	c.mu.Lock()
	l := c.lock
	c.mu.Unlock()
	if l == nil {
		return dlock.ErrLockNotHold
	}
	return l.Refresh(ctx)
}
