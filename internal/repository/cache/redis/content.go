package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/repository/cache"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb        redis.Cmdable
	expiration time.Duration
}

func NewCache(rdb redis.Cmdable, expiration time.Duration) *Cache {
	return &Cache{
		rdb:        rdb,
		expiration: expiration,
	}
}

func (c *Cache) Del(ctx context.Context, date domain.LocalDate) error {
	return c.rdb.Del(ctx, cache.ContentKey(date)).Err()
}

func (c *Cache) Get(ctx context.Context, date domain.LocalDate) (domain.ContentUnit, error) {
	val, err := c.rdb.Get(ctx, cache.ContentKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ContentUnit{}, cache.ErrorKeyNotFound
		}
		return domain.ContentUnit{}, fmt.Errorf("failed to get content from redis %w", err)
	}
	var content domain.ContentUnit
	if err = json.Unmarshal(val, &content); err != nil {
		return domain.ContentUnit{}, fmt.Errorf("failed to unmarshal content data %w", err)
	}
	return content, nil
}

func (c *Cache) Set(ctx context.Context, content domain.ContentUnit) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content data %w", err)
	}
	return c.rdb.Set(ctx, cache.ContentKey(content.Date), data, c.expiration).Err()
}
