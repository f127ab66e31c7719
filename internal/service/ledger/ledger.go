package ledger

import (
	"context"
	"errors"
	"fmt"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/sony/sonyflake"
)

// Ledger 投递记录的幂等守卫，保证 (会员, 内容) 最多一条投递记录
type Ledger interface {
	// GetOrNew 已存在则返回库里的记录，否则返回一条未落库的新记录
	GetOrNew(ctx context.Context, memberID, contentID int64) (domain.DeliveryUnit, error)
	// Save 新记录走 create-if-absent，创建冲突时合并到先写入的那条记录上
	Save(ctx context.Context, u domain.DeliveryUnit) (domain.DeliveryUnit, error)
}

type ledger struct {
	repo        repository.DeliveryUnitRepository
	idGenerator *sonyflake.Sonyflake
	logger      *elog.Component
}

func NewLedger(repo repository.DeliveryUnitRepository, idGenerator *sonyflake.Sonyflake) Ledger {
	return &ledger{
		repo:        repo,
		idGenerator: idGenerator,
		logger:      elog.DefaultLogger,
	}
}

func (l *ledger) GetOrNew(ctx context.Context, memberID, contentID int64) (domain.DeliveryUnit, error) {
	u, err := l.repo.FindByKey(ctx, memberID, contentID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, errs.ErrDeliveryUnitNotFound) {
		return domain.DeliveryUnit{}, err
	}
	id, err := l.idGenerator.NextID()
	if err != nil {
		return domain.DeliveryUnit{}, fmt.Errorf("生成投递记录ID失败: %w", err)
	}
	return domain.NewDeliveryUnit(id, memberID, contentID), nil
}

func (l *ledger) Save(ctx context.Context, u domain.DeliveryUnit) (domain.DeliveryUnit, error) {
	if u.Persisted {
		if err := l.repo.Update(ctx, u); err != nil {
			return domain.DeliveryUnit{}, err
		}
		return u, nil
	}

	err := l.repo.Create(ctx, u)
	if err == nil {
		u.Persisted = true
		return u, nil
	}
	if !errors.Is(err, errs.ErrDeliveryUnitDuplicate) {
		return domain.DeliveryUnit{}, err
	}

	// 并发的另一次调度先创建了记录，合并后以它为准
	winner, err := l.repo.FindByKey(ctx, u.MemberID, u.ContentID)
	if err != nil {
		return domain.DeliveryUnit{}, fmt.Errorf("创建冲突后重新加载投递记录失败: %w", err)
	}
	l.logger.Warn("投递记录创建冲突，合并到已有记录",
		elog.Int64("memberID", u.MemberID),
		elog.Int64("contentID", u.ContentID),
		elog.Any("winnerID", winner.ID))
	merged := merge(winner, u)
	if err = l.repo.Update(ctx, merged); err != nil {
		return domain.DeliveryUnit{}, err
	}
	return merged, nil
}

func merge(winner, loser domain.DeliveryUnit) domain.DeliveryUnit {
	winner.MergeHistory(loser.History)
	if winner.FirstDispatchedAt.IsZero() ||
		(!loser.FirstDispatchedAt.IsZero() && loser.FirstDispatchedAt.Before(winner.FirstDispatchedAt)) {
		winner.FirstDispatchedAt = loser.FirstDispatchedAt
	}
	if loser.LastDispatchedAt.After(winner.LastDispatchedAt) {
		winner.LastDispatchedAt = loser.LastDispatchedAt
	}
	if loser.Completed && (!winner.Completed || loser.CompletedAt.Before(winner.CompletedAt)) {
		winner.Completed = true
		winner.CompletedAt = loser.CompletedAt
	}
	return winner
}
