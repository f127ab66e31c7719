package retry

import (
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/retry"
)

// Config 启动阶段连接外部依赖时的重试配置
type Config struct {
	Type               string                    `yaml:"type"`
	FixedInterval      *FixedIntervalConfig      `yaml:"fixedInterval"`
	ExponentialBackoff *ExponentialBackoffConfig `yaml:"exponentialBackoff"`
}

type ExponentialBackoffConfig struct {
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
	MaxRetries      int32         `yaml:"maxRetries"`
}

type FixedIntervalConfig struct {
	Interval   time.Duration `yaml:"interval"`
	MaxRetries int32         `yaml:"maxRetries"`
}

func NewRetry(cfg Config) (retry.Strategy, error) {
	switch cfg.Type {
	case "fixed":
		if cfg.FixedInterval == nil {
			return nil, fmt.Errorf("缺少 fixedInterval 配置")
		}
		return retry.NewFixedIntervalRetryStrategy(cfg.FixedInterval.Interval, cfg.FixedInterval.MaxRetries)
	case "exponential":
		if cfg.ExponentialBackoff == nil {
			return nil, fmt.Errorf("缺少 exponentialBackoff 配置")
		}
		eb := cfg.ExponentialBackoff
		return retry.NewExponentialBackoffRetryStrategy(eb.InitialInterval, eb.MaxInterval, eb.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown retry type: %s", cfg.Type)
	}
}

// Do 按策略重试 fn，直到成功或者策略不再允许重试
func Do(strategy retry.Strategy, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		next, ok := strategy.Next()
		if !ok {
			return fmt.Errorf("重试耗尽: %w", err)
		}
		time.Sleep(next)
	}
}
