package tracing

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client 为推送客户端添加链路追踪的装饰器
type Client struct {
	client push.Client
	tracer trace.Tracer
}

func NewClient(c push.Client) *Client {
	return &Client{
		client: c,
		tracer: otel.Tracer("push-scheduler/push"),
	}
}

func (c *Client) SendMulticast(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error) {
	ctx, span := c.tracer.Start(ctx, "PushClient.SendMulticast",
		trace.WithAttributes(
			attribute.Int("push.tokens", len(tokens)),
			attribute.String("push.contentId", payload.Data["contentId"]),
		))
	defer span.End()
	res, err := c.client.SendMulticast(ctx, tokens, payload)
	end(span, res, err)
	return res, err
}

func (c *Client) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	ctx, span := c.tracer.Start(ctx, "PushClient.SubscribeToTopic",
		trace.WithAttributes(
			attribute.Int("push.tokens", len(tokens)),
			attribute.String("push.topic", topic),
		))
	defer span.End()
	res, err := c.client.SubscribeToTopic(ctx, tokens, topic)
	end(span, res, err)
	return res, err
}

func (c *Client) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	ctx, span := c.tracer.Start(ctx, "PushClient.UnsubscribeFromTopic",
		trace.WithAttributes(
			attribute.Int("push.tokens", len(tokens)),
			attribute.String("push.topic", topic),
		))
	defer span.End()
	res, err := c.client.UnsubscribeFromTopic(ctx, tokens, topic)
	end(span, res, err)
	return res, err
}

func end(span trace.Span, res domain.BatchResult, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Int("push.success", res.SuccessCount),
		attribute.Int("push.failure", res.FailureCount),
	)
}
