package mqx2

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer *kafka.Producer 中用到的部分
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// GeneralProducer 把事件序列化成 JSON 发到固定的 topic，并等待投递结果
type GeneralProducer[T any] struct {
	producer Producer
	topic    string
}

func NewGeneralProducer[T any](producer Producer, topic string) (*GeneralProducer[T], error) {
	if producer == nil {
		return nil, fmt.Errorf("topic %s 的生产者为空", topic)
	}
	return &GeneralProducer[T]{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *GeneralProducer[T]) Produce(ctx context.Context, evt T) error {
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化topic的消息失败 %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Value:          val,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("发送消息到 %s 失败 %w", p.topic, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("未知的投递结果 %v", e)
		}
		return m.TopicPartition.Error
	}
}
