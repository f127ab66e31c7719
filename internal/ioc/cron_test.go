package ioc

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"github.com/meoying/dlock-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	events []trigger.Event
}

func (p *recordingProducer) Produce(_ context.Context, evt trigger.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func TestTriggerJob(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 7, 15, 13, 0, 3, 0, time.UTC)
	producer := &recordingProducer{}
	job := newTriggerJob(producer, func() time.Time { return now })

	require.NoError(t, job(context.Background()))
	require.Len(t, producer.events, 1)
	evt := producer.events[0]
	require.NotNil(t, evt.SendTimeUTC)
	assert.Equal(t, domain.Bucket{Hour: 13, Minute: 0}, *evt.SendTimeUTC)
	assert.False(t, evt.DryRun)

	// 消费晚了一个窗口，目标时间桶不变
	target, _ := evt.Resolve(now.Add(16 * time.Minute))
	assert.Equal(t, domain.Bucket{Hour: 13, Minute: 0}, target)
}

// memoryLocks 进程内的 dlock.Client，同一个 key 同时只能被一个锁持有
type memoryLocks struct {
	holder map[string]*memoryLock
}

func (m *memoryLocks) NewLock(_ context.Context, key string, expiration time.Duration) (dlock.Lock, error) {
	return &memoryLock{locks: m, key: key, ttl: expiration}, nil
}

type memoryLock struct {
	locks     *memoryLocks
	key       string
	ttl       time.Duration
	refreshes int
}

func (l *memoryLock) Lock(context.Context) error {
	if _, ok := l.locks.holder[l.key]; ok {
		return dlock.ErrLocked
	}
	l.locks.holder[l.key] = l
	return nil
}

func (l *memoryLock) Unlock(context.Context) error {
	if l.locks.holder[l.key] != l {
		return dlock.ErrLockNotHold
	}
	delete(l.locks.holder, l.key)
	return nil
}

func (l *memoryLock) Refresh(context.Context) error {
	if l.locks.holder[l.key] != l {
		return dlock.ErrLockNotHold
	}
	l.refreshes++
	return nil
}

func TestCronLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	locks := &memoryLocks{holder: map[string]*memoryLock{}}
	first := newCronLock(locks, cronLockKey)
	second := newCronLock(locks, cronLockKey)

	assert.ErrorIs(t, first.Refresh(ctx, time.Second), dlock.ErrLockNotHold, "没抢到锁不能续约")
	assert.NoError(t, second.Unlock(ctx), "没抢到锁时释放是空操作")

	require.NoError(t, first.Lock(ctx, 16*time.Second))
	assert.Equal(t, 16*time.Second, locks.holder[cronLockKey].ttl)
	assert.True(t, errors.Is(second.Lock(ctx, 16*time.Second), dlock.ErrLocked), "只有一个实例能投递")

	require.NoError(t, first.Refresh(ctx, 16*time.Second))
	assert.Equal(t, 1, locks.holder[cronLockKey].refreshes)

	require.NoError(t, first.Unlock(ctx))
	require.NoError(t, second.Lock(ctx, 16*time.Second))
	assert.Equal(t, second.lock, dlock.Lock(locks.holder[cronLockKey]))
}
