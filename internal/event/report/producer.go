package report

import (
	"context"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/pkg/mqx2"
	"github.com/gotomicro/ego/core/elog"
)

const (
	EventName      = "push_scheduler_run_report"
	produceTimeout = time.Second * 5
)

type RunReportEventProducer interface {
	Produce(ctx context.Context, evt domain.RunReport) error
}

// Reporter 把调度报告发到 Kafka，发送失败只打日志
type Reporter struct {
	producer RunReportEventProducer
	logger   *elog.Component
}

func NewReporter(producer mqx2.Producer) (*Reporter, error) {
	p, err := mqx2.NewGeneralProducer[domain.RunReport](producer, EventName)
	if err != nil {
		return nil, err
	}
	return newReporter(p), nil
}

func newReporter(producer RunReportEventProducer) *Reporter {
	return &Reporter{
		producer: producer,
		logger:   elog.DefaultLogger,
	}
}

func (r *Reporter) Report(ctx context.Context, report domain.RunReport) {
	// 调度的 ctx 可能已经被取消，报告依旧要尽量发出去
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), produceTimeout)
	defer cancel()
	if err := r.producer.Produce(ctx, report); err != nil {
		r.logger.Warn("发送调度报告失败",
			elog.String("target", report.Target.String()),
			elog.Int("total", report.Total),
			elog.FieldErr(err))
	}
}
