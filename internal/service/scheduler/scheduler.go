package scheduler

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/service/processor"
	"gitee.com/flycash/push-scheduler/internal/service/scanner"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/errgroup"
)

// Config 调度配置，对应配置文件里的 scheduler
type Config struct {
	PageSize      int           `yaml:"pageSize"`
	Concurrency   int           `yaml:"concurrency"`
	MemberTimeout time.Duration `yaml:"memberTimeout"`
	LockTTL       time.Duration `yaml:"lockTTL"`
	DefaultBucket bool          `yaml:"defaultBucket"`
	ErrorCap      int           `yaml:"errorCap"`
}

func DefaultConfig() Config {
	return Config{
		PageSize:      500,
		Concurrency:   64,
		MemberTimeout: 10 * time.Second,
		LockTTL:       14 * time.Minute,
		DefaultBucket: true,
		ErrorCap:      domain.DefaultReportErrorCap,
	}
}

// Reporter 接收调度报告，失败不能影响调度本身
type Reporter interface {
	Report(ctx context.Context, report domain.RunReport)
}

// Scheduler 一次外部触发对应一次 Run
type Scheduler interface {
	// Run 同一个窗口已经有调度在执行时返回 errs.ErrRunInProgress。
	// 扫描出错时返回错误，报告里依旧包含已经处理过的会员
	Run(ctx context.Context, trigger domain.Trigger) (domain.RunReport, error)
}

type scheduler struct {
	scanner   scanner.Scanner
	processor processor.Processor
	locker    WindowLocker
	reporter  Reporter
	cfg       Config
	clock     func() time.Time
	logger    *elog.Component
}

func NewScheduler(s scanner.Scanner, p processor.Processor, locker WindowLocker,
	reporter Reporter, cfg Config, clock func() time.Time,
) Scheduler {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MemberTimeout <= 0 {
		cfg.MemberTimeout = def.MemberTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &scheduler{
		scanner:   s,
		processor: p,
		locker:    locker,
		reporter:  reporter,
		cfg:       cfg,
		clock:     clock,
		logger:    elog.DefaultLogger,
	}
}

func (s *scheduler) Run(ctx context.Context, trigger domain.Trigger) (domain.RunReport, error) {
	if err := trigger.Validate(); err != nil {
		return domain.RunReport{}, err
	}
	startedAt := s.clock()
	target, ref := trigger.Resolve(startedAt)
	report := domain.NewRunReport(target, ref, trigger.DryRun, startedAt, s.cfg.ErrorCap)

	key := fmt.Sprintf("push_scheduler:run:%s:%d_%d", domain.LocalDateOf(ref), target.Hour, target.Minute)
	unlock, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return report, fmt.Errorf("%w: key=%s, %w", errs.ErrRunInProgress, key, err)
	}
	defer func() {
		// ctx 可能已经被取消，释放锁不受它控制
		unCtx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()
		//nolint:contextcheck // 原始 ctx 可能已被取消
		if unErr := unlock(unCtx); unErr != nil {
			s.logger.Error("释放调度锁失败", elog.String("key", key), elog.FieldErr(unErr))
		}
	}()

	s.logger.Info("开始调度",
		elog.String("target", target.String()),
		elog.String("ref", ref.Format(time.RFC3339)),
		elog.Any("dryRun", trigger.DryRun))

	filter := domain.MemberFilter{WithPreferenceOnly: !s.cfg.DefaultBucket}
	err = s.scanner.Scan(ctx, filter, s.cfg.PageSize, func(ctx context.Context, members []domain.Member, pageNumber int) error {
		results := s.processPage(ctx, members, target, ref, trigger.DryRun)
		report.Pages = pageNumber
		for i := range results {
			report.Add(results[i])
		}
		return nil
	})
	report.FinishedAt = s.clock()
	if err != nil {
		report.Abort(err)
		s.logger.Error("调度被中止", elog.String("target", target.String()), elog.FieldErr(err))
	}

	s.logger.Info("调度结束",
		elog.String("target", target.String()),
		elog.Int("total", report.Total),
		elog.Int("matched", report.Matched),
		elog.Int("attempted", report.Attempted),
		elog.Int("succeeded", report.Succeeded),
		elog.Int("failed", report.Failed))
	s.reporter.Report(ctx, report)
	return report, err
}

// processPage 页内会员并发处理，等待全部完成，单个会员的失败不影响其他会员
func (s *scheduler) processPage(ctx context.Context, members []domain.Member,
	target domain.Bucket, ref time.Time, dryRun bool,
) []domain.MemberResult {
	results := make([]domain.MemberResult, len(members))
	var eg errgroup.Group
	eg.SetLimit(s.cfg.Concurrency)
	for i := range members {
		eg.Go(func() error {
			results[i] = s.processMember(ctx, processor.Request{
				Member: members[i],
				Target: target,
				Ref:    ref,
				DryRun: dryRun,
			})
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (s *scheduler) processMember(ctx context.Context, req processor.Request) domain.MemberResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MemberTimeout)
	defer cancel()

	done := make(chan domain.MemberResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- domain.Failed(req.Member.ID, fmt.Errorf("panic: %v", r))
			}
		}()
		done <- s.processor.Process(ctx, req)
	}()
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		// 卡住的外部调用不能拖住整页
		return domain.Failed(req.Member.ID, fmt.Errorf("处理会员超时: %w", ctx.Err()))
	}
}
