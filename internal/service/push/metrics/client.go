package metrics

import (
	"context"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"github.com/prometheus/client_golang/prometheus"
)

// Client 为推送客户端添加指标收集的装饰器
type Client struct {
	client              push.Client
	durationSummary     *prometheus.SummaryVec
	callCounter         *prometheus.CounterVec
	tokenCounter        *prometheus.CounterVec
	invalidTokenCounter *prometheus.CounterVec
	name                string
}

// NewClient reg 为 nil 时注册到默认的 Registerer
func NewClient(name string, c push.Client, reg prometheus.Registerer) *Client {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	durationSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "push_client_duration_seconds",
			Help:       "推送供应商调用耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"provider", "method", "status"},
	)
	callCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_client_call_total",
			Help: "推送供应商调用总数",
		},
		[]string{"provider", "method"},
	)
	tokenCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_client_token_total",
			Help: "按结果统计的令牌数",
		},
		[]string{"provider", "method", "result"},
	)
	invalidTokenCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_client_invalid_token_total",
			Help: "供应商报告失效的令牌数",
		},
		[]string{"provider", "method"},
	)
	reg.MustRegister(durationSummary, callCounter, tokenCounter, invalidTokenCounter)

	return &Client{
		client:              c,
		durationSummary:     durationSummary,
		callCounter:         callCounter,
		tokenCounter:        tokenCounter,
		invalidTokenCounter: invalidTokenCounter,
		name:                name,
	}
}

func (c *Client) SendMulticast(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error) {
	start := time.Now()
	res, err := c.client.SendMulticast(ctx, tokens, payload)
	c.observe("multicast", start, res, err)
	return res, err
}

func (c *Client) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	start := time.Now()
	res, err := c.client.SubscribeToTopic(ctx, tokens, topic)
	c.observe("subscribe", start, res, err)
	return res, err
}

func (c *Client) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error) {
	start := time.Now()
	res, err := c.client.UnsubscribeFromTopic(ctx, tokens, topic)
	c.observe("unsubscribe", start, res, err)
	return res, err
}

func (c *Client) observe(method string, start time.Time, res domain.BatchResult, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.callCounter.WithLabelValues(c.name, method).Inc()
	c.durationSummary.WithLabelValues(c.name, method, status).Observe(time.Since(start).Seconds())
	c.tokenCounter.WithLabelValues(c.name, method, "success").Add(float64(res.SuccessCount))
	c.tokenCounter.WithLabelValues(c.name, method, "failure").Add(float64(res.FailureCount))
	c.invalidTokenCounter.WithLabelValues(c.name, method).Add(float64(len(res.InvalidTokens())))
}
