package push

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/domain"
)

const (
	// MaxMulticastTokens 单次多播最多的令牌数
	MaxMulticastTokens = 500
	// MaxTopicTokens 单次主题订阅/退订最多的令牌数
	MaxTopicTokens = 1000
)

//go:generate mockgen -source=./types.go -package=pushmocks -destination=./mocks/client.mock.go
type Client interface {
	// SendMulticast 一次调用发给多个令牌，tokens 不超过 MaxMulticastTokens
	SendMulticast(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error)
	// SubscribeToTopic tokens 不超过 MaxTopicTokens
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error)
}
