package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/repository/dao"
	"gorm.io/gorm"
)

// DeliveryUnitRepository 投递记录仓储接口
type DeliveryUnitRepository interface {
	// FindByKey 不存在时返回 errs.ErrDeliveryUnitNotFound
	FindByKey(ctx context.Context, memberID, contentID int64) (domain.DeliveryUnit, error)
	// Create 已存在时返回 errs.ErrDeliveryUnitDuplicate
	Create(ctx context.Context, u domain.DeliveryUnit) error
	Update(ctx context.Context, u domain.DeliveryUnit) error
}

type deliveryUnitRepository struct {
	dao dao.DeliveryUnitDAO
}

// NewDeliveryUnitRepository 创建投递记录仓储实例
func NewDeliveryUnitRepository(d dao.DeliveryUnitDAO) DeliveryUnitRepository {
	return &deliveryUnitRepository{dao: d}
}

func (r *deliveryUnitRepository) FindByKey(ctx context.Context, memberID, contentID int64) (domain.DeliveryUnit, error) {
	u, err := r.dao.FindByKey(ctx, memberID, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DeliveryUnit{}, fmt.Errorf("%w: member=%d content=%d",
				errs.ErrDeliveryUnitNotFound, memberID, contentID)
		}
		return domain.DeliveryUnit{}, err
	}
	return r.toDomain(u)
}

func (r *deliveryUnitRepository) Create(ctx context.Context, u domain.DeliveryUnit) error {
	entity, err := r.toEntity(u)
	if err != nil {
		return err
	}
	return r.dao.Create(ctx, entity)
}

func (r *deliveryUnitRepository) Update(ctx context.Context, u domain.DeliveryUnit) error {
	entity, err := r.toEntity(u)
	if err != nil {
		return err
	}
	return r.dao.Update(ctx, entity)
}

func (r *deliveryUnitRepository) toEntity(u domain.DeliveryUnit) (dao.DeliveryUnit, error) {
	history := u.History
	if history == nil {
		history = []domain.DeliveryRecord{}
	}
	b, err := json.Marshal(history)
	if err != nil {
		return dao.DeliveryUnit{}, err
	}
	return dao.DeliveryUnit{
		ID:                u.ID,
		MemberID:          u.MemberID,
		ContentID:         u.ContentID,
		FirstDispatchedAt: toMillis(u.FirstDispatchedAt),
		LastDispatchedAt:  toMillis(u.LastDispatchedAt),
		Completed:         u.Completed,
		CompletedAt:       toMillis(u.CompletedAt),
		History:           sql.NullString{String: string(b), Valid: true},
	}, nil
}

func (r *deliveryUnitRepository) toDomain(u dao.DeliveryUnit) (domain.DeliveryUnit, error) {
	var history []domain.DeliveryRecord
	if u.History.Valid && u.History.String != "" {
		if err := json.Unmarshal([]byte(u.History.String), &history); err != nil {
			return domain.DeliveryUnit{}, fmt.Errorf("解析投递历史失败 id=%d: %w", u.ID, err)
		}
	}
	return domain.DeliveryUnit{
		ID:                u.ID,
		MemberID:          u.MemberID,
		ContentID:         u.ContentID,
		FirstDispatchedAt: fromMillis(u.FirstDispatchedAt),
		LastDispatchedAt:  fromMillis(u.LastDispatchedAt),
		Completed:         u.Completed,
		CompletedAt:       fromMillis(u.CompletedAt),
		History:           history,
		Persisted:         true,
	}, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
