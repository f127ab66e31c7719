package ioc

import (
	"context"
	"database/sql"
	"time"

	"gitee.com/flycash/push-scheduler/internal/pkg/retry"
	"gitee.com/flycash/push-scheduler/internal/repository/dao"
	"github.com/ego-component/egorm"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

func InitDB() *egorm.Component {
	waitForDBSetup()
	db := egorm.Load("mysql").Build()
	if err := dao.InitTables(db); err != nil {
		panic(err)
	}
	return db
}

// waitForDBSetup 容器一起拉起时 MySQL 往往还没就绪，先等它能 ping 通
func waitForDBSetup() {
	type Config struct {
		DSN   string       `yaml:"dsn"`
		Retry retry.Config `yaml:"retry"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("mysql", &cfg); err != nil {
		panic(err)
	}
	if cfg.Retry.Type == "" {
		cfg.Retry = retry.Config{
			Type: "exponential",
			ExponentialBackoff: &retry.ExponentialBackoffConfig{
				InitialInterval: time.Second,
				MaxInterval:     10 * time.Second,
				MaxRetries:      10,
			},
		}
	}
	strategy, err := retry.NewRetry(cfg.Retry)
	if err != nil {
		panic(err)
	}
	sqlDB, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		panic(err)
	}
	defer sqlDB.Close()

	const timeout = 5 * time.Second
	err = retry.Do(strategy, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err1 := sqlDB.PingContext(ctx)
		if err1 != nil {
			elog.DefaultLogger.Warn("等待数据库就绪", elog.FieldErr(err1))
		}
		return err1
	})
	if err != nil {
		panic(err)
	}
}
