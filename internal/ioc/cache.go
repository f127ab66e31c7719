package ioc

import (
	"time"

	"gitee.com/flycash/push-scheduler/internal/repository/cache/local"
	"gitee.com/flycash/push-scheduler/internal/repository/cache/redis"
	"github.com/gotomicro/ego/core/econf"
	ca "github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"
)

type cacheConfig struct {
	LocalExpiration time.Duration `yaml:"localExpiration"`
	RedisExpiration time.Duration `yaml:"redisExpiration"`
}

func loadCacheConfig() cacheConfig {
	cfg := cacheConfig{
		LocalExpiration: 10 * time.Minute,
		RedisExpiration: 24 * time.Hour,
	}
	if err := econf.UnmarshalKey("cache.content", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func InitGoCache() *ca.Cache {
	const cleanupInterval = 10 * time.Minute
	return ca.New(loadCacheConfig().LocalExpiration, cleanupInterval)
}

func InitLocalContentCache(c *ca.Cache) *local.Cache {
	return local.NewLocalCache(c, loadCacheConfig().LocalExpiration)
}

func InitRedisContentCache(rdb *goredis.Client) *redis.Cache {
	return redis.NewCache(rdb, loadCacheConfig().RedisExpiration)
}
