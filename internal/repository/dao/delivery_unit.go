package dao

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gitee.com/flycash/push-scheduler/internal/errs"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
)

// DeliveryUnit 投递记录表，(member_id, content_id) 上有唯一索引
type DeliveryUnit struct {
	ID                uint64         `gorm:"primaryKey;comment:'雪花算法ID'"`
	MemberID          int64          `gorm:"type:BIGINT;NOT NULL;uniqueIndex:uk_member_content,priority:1;comment:'会员ID'"`
	ContentID         int64          `gorm:"type:BIGINT;NOT NULL;uniqueIndex:uk_member_content,priority:2;comment:'内容ID'"`
	FirstDispatchedAt int64          `gorm:"comment:'首次调度时间'"`
	LastDispatchedAt  int64          `gorm:"comment:'最近一次调度时间'"`
	Completed         bool           `gorm:"DEFAULT:false;comment:'是否已经成功投递过'"`
	CompletedAt       int64          `gorm:"comment:'首次成功投递时间'"`
	History           sql.NullString `gorm:"type:JSON;comment:'投递历史'"`
	Ctime             int64
	Utime             int64
}

// TableName 重命名表
func (DeliveryUnit) TableName() string {
	return "delivery_units"
}

type DeliveryUnitDAO interface {
	FindByKey(ctx context.Context, memberID, contentID int64) (DeliveryUnit, error)
	// Create 依赖唯一索引做 create-if-absent，冲突时返回 errs.ErrDeliveryUnitDuplicate
	Create(ctx context.Context, u DeliveryUnit) error
	// Update 按 (member_id, content_id) 更新，id 不参与条件
	Update(ctx context.Context, u DeliveryUnit) error
}

type deliveryUnitDAO struct {
	db *egorm.Component
}

// NewDeliveryUnitDAO 创建投递记录DAO实例
func NewDeliveryUnitDAO(db *egorm.Component) DeliveryUnitDAO {
	return &deliveryUnitDAO{db: db}
}

func (d *deliveryUnitDAO) FindByKey(ctx context.Context, memberID, contentID int64) (DeliveryUnit, error) {
	var u DeliveryUnit
	err := d.db.WithContext(ctx).
		Where("member_id = ? AND content_id = ?", memberID, contentID).
		First(&u).Error
	return u, err
}

func (d *deliveryUnitDAO) Create(ctx context.Context, u DeliveryUnit) error {
	now := time.Now().UnixMilli()
	u.Ctime, u.Utime = now, now
	err := d.db.WithContext(ctx).Create(&u).Error
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		if me.Number == uniqueIndexErrNo {
			return errs.ErrDeliveryUnitDuplicate
		}
	}
	return err
}

func (d *deliveryUnitDAO) Update(ctx context.Context, u DeliveryUnit) error {
	res := d.db.WithContext(ctx).Model(&DeliveryUnit{}).
		Where("member_id = ? AND content_id = ?", u.MemberID, u.ContentID).
		Updates(map[string]any{
			"first_dispatched_at": u.FirstDispatchedAt,
			"last_dispatched_at":  u.LastDispatchedAt,
			"completed":           u.Completed,
			"completed_at":        u.CompletedAt,
			"history":             u.History,
			"utime":               time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrDeliveryUnitNotFound
	}
	return nil
}
