package trigger

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/pkg/mqx2"
)

type TriggerEventProducer interface {
	Produce(ctx context.Context, evt Event) error
}

func NewTriggerEventProducer(producer mqx2.Producer) (TriggerEventProducer, error) {
	return mqx2.NewGeneralProducer[Event](producer, EventName)
}
