package ioc

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"gitee.com/flycash/push-scheduler/internal/service/scheduler"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/meoying/dlock-go"
)

// Task 随应用启动的后台任务，ctx 取消后退出
type Task interface {
	Start(ctx context.Context)
}

type triggerTask struct {
	consumer *trigger.EventConsumer
	dclient  dlock.Client
	cfg      scheduler.Config
}

func (t *triggerTask) Start(ctx context.Context) {
	t.consumer.Start(ctx, t.dclient, t.cfg.LockTTL)
}

func InitTriggerConsumer(c *kafka.Consumer, svc scheduler.Scheduler) *trigger.EventConsumer {
	consumer, err := trigger.NewEventConsumer(c, svc)
	if err != nil {
		panic(err)
	}
	return consumer
}

func InitTasks(consumer *trigger.EventConsumer, dclient dlock.Client, cfg scheduler.Config) []Task {
	return []Task{
		&triggerTask{consumer: consumer, dclient: dclient, cfg: cfg},
	}
}
