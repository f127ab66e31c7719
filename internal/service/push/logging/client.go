package logging

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"github.com/gotomicro/ego/core/elog"
)

// Client 只打日志的推送客户端，本地开发和演练环境使用，所有令牌都算成功
type Client struct {
	logger *elog.Component
}

func NewClient() *Client {
	return &Client{
		logger: elog.DefaultLogger,
	}
}

func (c *Client) SendMulticast(_ context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error) {
	c.logger.Info("发送多播推送",
		elog.Int("tokens", len(tokens)),
		elog.String("title", payload.Title),
		elog.Any("data", payload.Data))
	return domain.BatchResult{SuccessCount: len(tokens)}, nil
}

func (c *Client) SubscribeToTopic(_ context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	c.logger.Info("订阅主题", elog.Int("tokens", len(tokens)), elog.String("topic", topic))
	return domain.BatchResult{SuccessCount: len(tokens)}, nil
}

func (c *Client) UnsubscribeFromTopic(_ context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	c.logger.Info("退订主题", elog.Int("tokens", len(tokens)), elog.String("topic", topic))
	return domain.BatchResult{SuccessCount: len(tokens)}, nil
}
