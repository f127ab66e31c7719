package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/pkg/loopjob"
	"gitee.com/flycash/push-scheduler/internal/pkg/mqx2"
	"gitee.com/flycash/push-scheduler/internal/service/scheduler"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

const defaultPollTimeout = time.Second

type EventConsumer struct {
	consumer    mqx2.Consumer
	svc         scheduler.Scheduler
	pollTimeout time.Duration
	logger      *elog.Component
}

func NewEventConsumer(consumer *kafka.Consumer, svc scheduler.Scheduler) (*EventConsumer, error) {
	if err := consumer.SubscribeTopics([]string{EventName}, nil); err != nil {
		return nil, err
	}
	return newEventConsumer(consumer, svc), nil
}

func newEventConsumer(consumer mqx2.Consumer, svc scheduler.Scheduler) *EventConsumer {
	return &EventConsumer{
		consumer:    consumer,
		svc:         svc,
		pollTimeout: defaultPollTimeout,
		logger:      elog.DefaultLogger,
	}
}

// Start 只有抢到分布式锁的实例消费触发消息，lockTTL 要比一次调度的耗时长
func (c *EventConsumer) Start(ctx context.Context, dclient dlock.Client, lockTTL time.Duration) {
	const key = "push_scheduler_trigger_consumer"
	go loopjob.NewInfiniteLoop(dclient, c.Consume, key).WithInterval(lockTTL).Run(ctx)
}

// Consume 读取一条触发消息并执行一次调度。
// 调度结束后总是提交消费进度，重复的窗口由调度锁和投递记录兜底，不自动重试
func (c *EventConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.ReadMessage(c.pollTimeout)
	if err != nil {
		var kErr kafka.Error
		if errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut {
			return nil
		}
		return fmt.Errorf("获取消息失败: %w", err)
	}

	var evt Event
	if err = json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("解析触发消息失败，跳过", elog.FieldErr(err), elog.String("value", string(msg.Value)))
		return c.commit(msg)
	}

	report, runErr := c.svc.Run(ctx, evt)
	switch {
	case runErr == nil:
		c.logger.Info("触发消息处理完成",
			elog.String("target", report.Target.String()),
			elog.Int("total", report.Total))
	case errors.Is(runErr, errs.ErrRunInProgress):
		c.logger.Info("同一窗口的调度正在执行，跳过", elog.FieldErr(runErr))
		runErr = nil
	case errors.Is(runErr, errs.ErrInvalidParameter):
		c.logger.Warn("触发消息参数错误，跳过", elog.FieldErr(runErr), elog.Any("event", evt))
		runErr = nil
	}

	if err = c.commit(msg); err != nil {
		return err
	}
	return runErr
}

func (c *EventConsumer) commit(msg *kafka.Message) error {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Warn("提交消息失败",
			elog.FieldErr(err),
			elog.Any("partition", msg.TopicPartition.Partition),
			elog.Any("offset", msg.TopicPartition.Offset))
		return err
	}
	return nil
}
