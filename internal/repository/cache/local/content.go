package local

import (
	"context"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/repository/cache"
	ca "github.com/patrickmn/go-cache"
)

// Cache 进程内的内容缓存，一天的内容在一个调度周期里会被大量会员重复读取
type Cache struct {
	c          *ca.Cache
	expiration time.Duration
}

func NewLocalCache(c *ca.Cache, expiration time.Duration) *Cache {
	return &Cache{
		c:          c,
		expiration: expiration,
	}
}

func (l *Cache) Get(_ context.Context, date domain.LocalDate) (domain.ContentUnit, error) {
	v, ok := l.c.Get(cache.ContentKey(date))
	if !ok {
		return domain.ContentUnit{}, cache.ErrorKeyNotFound
	}
	return v.(domain.ContentUnit), nil
}

func (l *Cache) Set(_ context.Context, c domain.ContentUnit) error {
	l.c.Set(cache.ContentKey(c.Date), c, l.expiration)
	return nil
}
