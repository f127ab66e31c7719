package fcm

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"gitee.com/flycash/push-scheduler/internal/domain"
)

// messagingClient *messaging.Client 里用到的部分
type messagingClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

// Client 基于 Firebase Cloud Messaging 的推送客户端
type Client struct {
	client messagingClient
}

func NewClient(client *messaging.Client) *Client {
	return &Client{client: client}
}

func (c *Client) SendMulticast(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error) {
	resp, err := c.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   payload.Data,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		},
	})
	if err != nil {
		return domain.BatchResult{}, err
	}
	res := domain.BatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}
	for idx, r := range resp.Responses {
		if r == nil || r.Success {
			continue
		}
		res.Failures = append(res.Failures, domain.TokenFailure{
			Index: idx,
			Token: tokens[idx],
			Code:  CodeOf(r.Error),
		})
	}
	return res, nil
}

func (c *Client) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	resp, err := c.client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return domain.BatchResult{}, err
	}
	return topicResult(tokens, resp), nil
}

func (c *Client) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	resp, err := c.client.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return domain.BatchResult{}, err
	}
	return topicResult(tokens, resp), nil
}

func topicResult(tokens []string, resp *messaging.TopicManagementResponse) domain.BatchResult {
	res := domain.BatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}
	for _, e := range resp.Errors {
		if e == nil || e.Index < 0 || e.Index >= len(tokens) {
			continue
		}
		res.Failures = append(res.Failures, domain.TokenFailure{
			Index: e.Index,
			Token: tokens[e.Index],
			Code:  CodeOfReason(e.Reason),
		})
	}
	return res
}

// CodeOf 把多播里单个令牌的错误转成错误码
func CodeOf(err error) domain.PushCode {
	switch {
	case err == nil:
		return domain.PushCodeUnknown
	case messaging.IsRegistrationTokenNotRegistered(err), messaging.IsUnregistered(err):
		return domain.PushCodeTokenNotRegistered
	case messaging.IsSenderIDMismatch(err):
		// 令牌属于别的项目，对我们来说同样是失效令牌
		return domain.PushCodeInvalidToken
	case messaging.IsInvalidArgument(err):
		return domain.PushCodeInvalidArgument
	case messaging.IsUnavailable(err):
		return domain.PushCodeUnavailable
	case messaging.IsQuotaExceeded(err):
		return domain.PushCodeQuotaExceeded
	case messaging.IsInternal(err):
		return domain.PushCodeInternal
	default:
		return domain.PushCodeUnknown
	}
}

// CodeOfReason 主题管理接口按令牌返回的是字符串原因
func CodeOfReason(reason string) domain.PushCode {
	switch reason {
	case "NOT_FOUND", "registration-token-not-registered":
		return domain.PushCodeTokenNotRegistered
	case "INVALID_ARGUMENT", "invalid-argument":
		return domain.PushCodeInvalidArgument
	case "RESOURCE_EXHAUSTED", "TOO_MANY_TOPICS":
		return domain.PushCodeQuotaExceeded
	case "INTERNAL", "internal-error":
		return domain.PushCodeInternal
	case "UNAVAILABLE", "unavailable":
		return domain.PushCodeUnavailable
	default:
		return domain.PushCodeUnknown
	}
}
