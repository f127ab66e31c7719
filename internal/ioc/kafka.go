package ioc

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/event/report"
	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

type kafkaConfig struct {
	BootstrapServers string `yaml:"bootstrapServers"`
	ClientID         string `yaml:"clientId"`
	GroupID          string `yaml:"groupId"`
	Partitions       int    `yaml:"partitions"`
}

func loadKafkaConfig() kafkaConfig {
	cfg := kafkaConfig{
		ClientID:   "push-scheduler",
		GroupID:    "push-scheduler",
		Partitions: 1,
	}
	if err := econf.UnmarshalKey("kafka", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func InitKafkaProducer() *kafka.Producer {
	cfg := loadKafkaConfig()
	initTopics(cfg, trigger.EventName, report.EventName)
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         cfg.ClientID,
	})
	if err != nil {
		panic(fmt.Sprintf("创建生产者失败: %v", err))
	}
	return producer
}

func InitKafkaConsumer() *kafka.Consumer {
	cfg := loadKafkaConfig()
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		panic(fmt.Sprintf("创建消费者失败: %v", err))
	}
	return consumer
}

func initTopics(cfg kafkaConfig, topics ...string) {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
	})
	if err != nil {
		panic(fmt.Sprintf("创建kafka连接失败: %v", err))
	}
	defer adminClient.Close()

	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, t := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             t,
			NumPartitions:     cfg.Partitions,
			ReplicationFactor: 1,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := adminClient.CreateTopics(ctx, specs)
	if err != nil {
		panic(fmt.Sprintf("创建topic失败: %v", err))
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			elog.DefaultLogger.Error("创建topic失败", elog.String("topic", result.Topic), elog.FieldErr(result.Error))
		}
	}
}

func InitTriggerEventProducer(producer *kafka.Producer) trigger.TriggerEventProducer {
	p, err := trigger.NewTriggerEventProducer(producer)
	if err != nil {
		panic(err)
	}
	return p
}

func InitRunReporter(producer *kafka.Producer) *report.Reporter {
	r, err := report.NewReporter(producer)
	if err != nil {
		panic(err)
	}
	return r
}
