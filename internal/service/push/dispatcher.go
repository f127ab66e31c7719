package push

import (
	"context"
	"fmt"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
)

// Dispatcher 多播推送。只负责发送和报告需要删除的令牌，不写会员记录
type Dispatcher interface {
	// Send 全部分片都调用失败时返回 errs.ErrPushFailed，结果里依旧带着每个令牌的失败信息
	Send(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error)
	AlreadyPushed(u domain.DeliveryUnit) bool
}

type dispatcher struct {
	client    Client
	chunkSize int
	logger    *elog.Component
}

func NewDispatcher(client Client) Dispatcher {
	return &dispatcher{
		client:    client,
		chunkSize: MaxMulticastTokens,
		logger:    elog.DefaultLogger,
	}
}

func (d *dispatcher) Send(ctx context.Context, tokens []string, payload domain.PushPayload) (domain.BatchResult, error) {
	var (
		res       domain.BatchResult
		lastErr   error
		failedAll = true
	)
	if len(tokens) == 0 {
		return res, nil
	}
	for offset := 0; offset < len(tokens); offset += d.chunkSize {
		chunk := tokens[offset:min(offset+d.chunkSize, len(tokens))]
		r, err := d.client.SendMulticast(ctx, chunk, payload)
		if err != nil {
			// 整批调用失败按临时错误处理，不删除任何令牌
			d.logger.Warn("多播推送调用失败",
				elog.Int("offset", offset),
				elog.Int("size", len(chunk)),
				elog.FieldErr(err))
			lastErr = err
			r = unavailable(chunk)
		} else {
			failedAll = false
		}
		res = res.Merge(r, offset)
	}

	for _, f := range res.Failures {
		if !f.Code.Terminal() {
			d.logger.Info("令牌推送临时失败", elog.Int("index", f.Index), elog.String("code", string(f.Code)))
		}
	}
	if failedAll {
		return res, fmt.Errorf("%w: %w", errs.ErrPushFailed, lastErr)
	}
	return res, nil
}

func (d *dispatcher) AlreadyPushed(u domain.DeliveryUnit) bool {
	return u.AlreadyPushed()
}

func unavailable(tokens []string) domain.BatchResult {
	return domain.BatchResult{
		FailureCount: len(tokens),
		Failures: slice.Map(tokens, func(idx int, src string) domain.TokenFailure {
			return domain.TokenFailure{Index: idx, Token: src, Code: domain.PushCodeUnavailable}
		}),
	}
}
