package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/service/ledger"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"gitee.com/flycash/push-scheduler/internal/service/window"
	"github.com/gotomicro/ego/core/elog"
)

// Request 处理单个会员需要的输入
type Request struct {
	Member domain.Member
	Target domain.Bucket
	// Ref 参考时间，决定会员的本地日期和时区偏移
	Ref    time.Time
	DryRun bool
}

// ContentFinder 按会员本地日期查找当天内容
type ContentFinder interface {
	FindByDate(ctx context.Context, date domain.LocalDate) (domain.ContentUnit, error)
}

// MemberWriter 处理过程中对会员的两种写入
type MemberWriter interface {
	// UpdateDeviceTokens 持久化裁剪后的设备令牌
	UpdateDeviceTokens(ctx context.Context, id int64, tokens []string) error
	// UpdateUTCSendTime 刷新过期的 UTC 发送时间缓存
	UpdateUTCSendTime(ctx context.Context, id int64, bucket domain.Bucket) error
}

// Processor 单个会员的处理单元，可以独立失败，重复调用是幂等的
type Processor interface {
	// Process 不返回错误，所有错误都体现在 MemberResult 里
	Process(ctx context.Context, req Request) domain.MemberResult
}

type processor struct {
	matcher    window.Matcher
	contents   ContentFinder
	ledger     ledger.Ledger
	dispatcher push.Dispatcher
	members    MemberWriter
	clock      func() time.Time
	logger     *elog.Component
}

func NewProcessor(matcher window.Matcher, contents ContentFinder, l ledger.Ledger,
	dispatcher push.Dispatcher, members MemberWriter, clock func() time.Time,
) Processor {
	if clock == nil {
		clock = time.Now
	}
	return &processor{
		matcher:    matcher,
		contents:   contents,
		ledger:     l,
		dispatcher: dispatcher,
		members:    members,
		clock:      clock,
		logger:     elog.DefaultLogger,
	}
}

func (p *processor) Process(ctx context.Context, req Request) (res domain.MemberResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("处理会员时发生panic", elog.Int64("memberID", req.Member.ID), elog.Any("panic", r))
			res = domain.Failed(req.Member.ID, fmt.Errorf("panic: %v", r))
		}
	}()
	return p.process(ctx, req)
}

func (p *processor) process(ctx context.Context, req Request) domain.MemberResult {
	member := req.Member

	bucket, ok := p.matcher.MemberBucket(member, req.Ref)
	if !ok {
		return domain.NoPreference(member.ID)
	}
	if !req.DryRun {
		p.refreshUTCSendTime(ctx, member, req.Ref)
	}
	// 本次仍然按缓存匹配，刷新后的缓存从下一个窗口开始生效
	if !bucket.Equal(req.Target) {
		return domain.NoWindow(member.ID)
	}

	date := p.matcher.LocalDate(member, req.Ref)
	content, err := p.contents.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, errs.ErrContentNotFound) {
			return domain.NoContent(member.ID)
		}
		return domain.Failed(member.ID, fmt.Errorf("查询 %s 的内容失败: %w", date, err))
	}

	unit, err := p.ledger.GetOrNew(ctx, member.ID, content.ID)
	if err != nil {
		return domain.Failed(member.ID, fmt.Errorf("查询投递记录失败: %w", err))
	}
	if req.DryRun {
		return domain.Matched(member.ID, domain.ReasonDryRun, unit.ID)
	}
	if p.dispatcher.AlreadyPushed(unit) {
		return p.skip(ctx, member.ID, unit, domain.ReasonAlreadyPushed)
	}
	if !member.HasDeviceTokens() {
		return p.skip(ctx, member.ID, unit, domain.ReasonNoDeviceTokens)
	}

	res := domain.MemberResult{
		MemberID:       member.ID,
		Kind:           domain.ResultDispatched,
		DeliveryUnitID: unit.ID,
	}
	devices := len(member.DeviceTokens)
	batch, err := p.dispatcher.Send(ctx, member.DeviceTokens, content.Payload())
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	res.SuccessCount, res.FailureCount = batch.SuccessCount, batch.FailureCount
	// 先裁剪令牌，投递记录写失败也不影响
	p.pruneTokens(ctx, &member, batch, &res)

	now := p.clock()
	if batch.SuccessCount > 0 {
		unit.Append(domain.DeliveryRecord{
			Medium:    domain.MediumPush,
			Timestamp: now,
			Detail:    fmt.Sprintf("%d/%d devices", batch.SuccessCount, devices),
		})
	} else {
		unit.Touch(now)
	}
	if _, err = p.ledger.Save(ctx, unit); err != nil {
		failed := domain.Failed(member.ID, fmt.Errorf("保存投递记录失败: %w", err))
		failed.DeliveryUnitID = unit.ID
		failed.SuccessCount, failed.FailureCount = res.SuccessCount, res.FailureCount
		failed.PrunedTokens = res.PrunedTokens
		failed.Errors = append(res.Errors, failed.Errors...)
		return failed
	}
	return res
}

func (p *processor) pruneTokens(ctx context.Context, member *domain.Member, batch domain.BatchResult, res *domain.MemberResult) {
	res.PrunedTokens = member.PruneTokens(batch.InvalidTokens())
	if len(res.PrunedTokens) == 0 {
		return
	}
	if err := p.members.UpdateDeviceTokens(ctx, member.ID, member.DeviceTokens); err != nil {
		p.logger.Warn("保存裁剪后的设备令牌失败", elog.Int64("memberID", member.ID), elog.FieldErr(err))
		res.Errors = append(res.Errors, fmt.Sprintf("prune tokens: %s", err))
	}
}

// refreshUTCSendTime 缓存缺失或者和时区重新计算的结果不一致（比如夏令时切换）时写回。
// 没有时区的会员只有默认时间桶，不写缓存
func (p *processor) refreshUTCSendTime(ctx context.Context, member domain.Member, ref time.Time) {
	fresh, ok := p.matcher.LocalBucket(member, ref)
	if !ok {
		return
	}
	if member.UTCSendTime != nil && member.UTCSendTime.Equal(fresh) {
		return
	}
	if err := p.members.UpdateUTCSendTime(ctx, member.ID, fresh); err != nil {
		p.logger.Warn("刷新UTC发送时间缓存失败",
			elog.Int64("memberID", member.ID),
			elog.String("bucket", fresh.String()),
			elog.FieldErr(err))
	}
}

// skip 命中窗口但不推送，依旧落库一次作为“匹配过但没有推送”的标记
func (p *processor) skip(ctx context.Context, memberID int64, unit domain.DeliveryUnit, reason string) domain.MemberResult {
	unit.Touch(p.clock())
	if _, err := p.ledger.Save(ctx, unit); err != nil {
		failed := domain.Failed(memberID, fmt.Errorf("保存投递记录失败: %w", err))
		failed.DeliveryUnitID = unit.ID
		return failed
	}
	return domain.Matched(memberID, reason, unit.ID)
}
