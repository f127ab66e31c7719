package push

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/service/window"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

// ReconcileResult 一次主题订阅对账的结果
type ReconcileResult struct {
	Member        domain.Member
	RemovedTopics []string
	AddedTopics   []string
	RemovedTokens []string
}

// MemberWriter 对账结束后一次性持久化会员
type MemberWriter interface {
	UpdateSubscriptions(ctx context.Context, m domain.Member) error
}

// TopicManager 维护会员在时间桶主题上的订阅，用于按主题批量广播
type TopicManager interface {
	// Reconcile 退订所有过期的时间桶主题，订阅当前时间桶主题，删除失效令牌，最后落库一次。
	// 供应商的错误会汇总返回，但不影响已经成功的部分落库
	Reconcile(ctx context.Context, member domain.Member) (ReconcileResult, error)
}

type topicManager struct {
	client  Client
	members MemberWriter
	matcher window.Matcher
	prefix  string
	clock   func() time.Time
	logger  *elog.Component
}

func NewTopicManager(client Client, members MemberWriter, matcher window.Matcher,
	prefix string, clock func() time.Time,
) TopicManager {
	if clock == nil {
		clock = time.Now
	}
	return &topicManager{
		client:  client,
		members: members,
		matcher: matcher,
		prefix:  prefix,
		clock:   clock,
		logger:  elog.DefaultLogger,
	}
}

func (t *topicManager) Reconcile(ctx context.Context, member domain.Member) (ReconcileResult, error) {
	var (
		res     ReconcileResult
		errList *multierror.Error
		invalid []string
	)

	// 默认时间桶随调用时间变化，只有能按时区算出时间桶的会员才订阅主题
	current := ""
	bucket, ok := t.matcher.LocalBucket(member, t.clock())
	if ok {
		current = bucket.Topic(t.prefix)
		member.UTCSendTime = &bucket
	}

	var kept []string
	for _, topic := range member.TopicSubscriptions {
		if _, isBucket := domain.ParseTopicBucket(t.prefix, topic); !isBucket || topic == current {
			kept = append(kept, topic)
			continue
		}
		if !member.HasDeviceTokens() {
			res.RemovedTopics = append(res.RemovedTopics, topic)
			continue
		}
		r, err := t.batch(ctx, member.DeviceTokens, topic, t.client.UnsubscribeFromTopic)
		if err != nil {
			errList = multierror.Append(errList, fmt.Errorf("退订主题 %s 失败: %w", topic, err))
			kept = append(kept, topic)
			continue
		}
		invalid = append(invalid, r.InvalidTokens()...)
		res.RemovedTopics = append(res.RemovedTopics, topic)
	}

	if current != "" {
		tokens := slice.DiffSet(member.DeviceTokens, invalid)
		if len(tokens) > 0 {
			r, err := t.batch(ctx, tokens, current, t.client.SubscribeToTopic)
			if err != nil {
				errList = multierror.Append(errList, fmt.Errorf("订阅主题 %s 失败: %w", current, err))
			} else {
				invalid = append(invalid, r.InvalidTokens()...)
				if !slice.Contains(kept, current) {
					kept = append(kept, current)
					res.AddedTopics = append(res.AddedTopics, current)
				}
			}
		}
	}

	res.RemovedTokens = member.PruneTokens(invalid)
	member.TopicSubscriptions = kept
	if !member.HasDeviceTokens() {
		// 没有令牌时主题订阅没有意义
		member.TopicSubscriptions = slice.FilterDelete(member.TopicSubscriptions, func(_ int, src string) bool {
			_, isBucket := domain.ParseTopicBucket(t.prefix, src)
			return isBucket
		})
	}
	res.Member = member

	if err := t.members.UpdateSubscriptions(ctx, member); err != nil {
		errList = multierror.Append(errList, fmt.Errorf("保存会员订阅失败: %w", err))
	}
	if len(res.RemovedTokens) > 0 {
		t.logger.Info("主题对账删除失效令牌",
			elog.Int64("memberID", member.ID),
			elog.Int("count", len(res.RemovedTokens)))
	}
	return res, errList.ErrorOrNil()
}

type topicFunc func(ctx context.Context, tokens []string, topic string) (domain.BatchResult, error)

func (t *topicManager) batch(ctx context.Context, tokens []string, topic string, fn topicFunc) (domain.BatchResult, error) {
	var res domain.BatchResult
	for offset := 0; offset < len(tokens); offset += MaxTopicTokens {
		chunk := tokens[offset:min(offset+MaxTopicTokens, len(tokens))]
		r, err := fn(ctx, chunk, topic)
		if err != nil {
			return res, err
		}
		res = res.Merge(r, offset)
	}
	return res, nil
}
