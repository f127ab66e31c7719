package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/ego-component/egorm"
)

// Member 会员表，只包含调度相关的字段
type Member struct {
	ID       int64  `gorm:"primaryKey;type:BIGINT;index:idx_ctime_id,priority:2;comment:'会员ID'"`
	Timezone string `gorm:"type:VARCHAR(64);comment:'IANA时区名'"`

	LocalSendHour   sql.NullInt16 `gorm:"type:TINYINT;comment:'本地发送时间-小时'"`
	LocalSendMinute sql.NullInt16 `gorm:"type:TINYINT;comment:'本地发送时间-分钟，只能是0/15/30/45'"`
	UTCSendHour     sql.NullInt16 `gorm:"column:utc_send_hour;type:TINYINT;comment:'UTC发送时间缓存-小时'"`
	UTCSendMinute   sql.NullInt16 `gorm:"column:utc_send_minute;type:TINYINT;comment:'UTC发送时间缓存-分钟'"`

	DeviceTokens       sql.NullString `gorm:"type:JSON;comment:'设备令牌列表'"`
	TokenCount         int            `gorm:"type:INT;DEFAULT:0;comment:'设备令牌数量，用于扫描时过滤'"`
	TopicSubscriptions sql.NullString `gorm:"type:JSON;comment:'已订阅的主题列表'"`

	Ctime int64 `gorm:"index:idx_ctime_id,priority:1"`
	Utime int64
}

// TableName 重命名表
func (Member) TableName() string {
	return "members"
}

type MemberDAO interface {
	Create(ctx context.Context, m Member) (Member, error)
	FindByID(ctx context.Context, id int64) (Member, error)
	// ListAfter 按 (ctime, id) 升序返回游标之后的一页会员
	ListAfter(ctx context.Context, ctime, id int64, withTokensOnly, withPreferenceOnly bool, limit int) ([]Member, error)
	// UpdateDevices 一次性更新设备令牌、主题订阅和 UTC 发送时间缓存
	UpdateDevices(ctx context.Context, m Member) error
	// UpdateDeviceTokens 只更新设备令牌
	UpdateDeviceTokens(ctx context.Context, id int64, tokens sql.NullString, count int) error
	// UpdatePreference 更新时区和发送时间偏好
	UpdatePreference(ctx context.Context, m Member) error
	// UpdateUTCSendTime 只更新 UTC 发送时间缓存
	UpdateUTCSendTime(ctx context.Context, id int64, hour, minute int16) error
}

type memberDAO struct {
	db *egorm.Component
}

// NewMemberDAO 创建会员DAO实例
func NewMemberDAO(db *egorm.Component) MemberDAO {
	return &memberDAO{db: db}
}

func (d *memberDAO) Create(ctx context.Context, m Member) (Member, error) {
	now := time.Now().UnixMilli()
	if m.Ctime == 0 {
		m.Ctime = now
	}
	m.Utime = now
	err := d.db.WithContext(ctx).Create(&m).Error
	return m, err
}

func (d *memberDAO) FindByID(ctx context.Context, id int64) (Member, error) {
	var m Member
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return m, err
}

func (d *memberDAO) ListAfter(ctx context.Context, ctime, id int64,
	withTokensOnly, withPreferenceOnly bool, limit int,
) ([]Member, error) {
	var res []Member
	query := d.db.WithContext(ctx).
		Where("ctime > ? OR (ctime = ? AND id > ?)", ctime, ctime, id)
	if withTokensOnly {
		query = query.Where("token_count > ?", 0)
	}
	if withPreferenceOnly {
		query = query.Where("utc_send_hour IS NOT NULL OR local_send_hour IS NOT NULL")
	}
	err := query.Order("ctime ASC, id ASC").Limit(limit).Find(&res).Error
	return res, err
}

func (d *memberDAO) UpdateDevices(ctx context.Context, m Member) error {
	return d.db.WithContext(ctx).Model(&Member{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"device_tokens":       m.DeviceTokens,
			"token_count":         m.TokenCount,
			"topic_subscriptions": m.TopicSubscriptions,
			"utc_send_hour":       m.UTCSendHour,
			"utc_send_minute":     m.UTCSendMinute,
			"utime":               time.Now().UnixMilli(),
		}).Error
}

func (d *memberDAO) UpdateDeviceTokens(ctx context.Context, id int64, tokens sql.NullString, count int) error {
	return d.db.WithContext(ctx).Model(&Member{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"device_tokens": tokens,
			"token_count":   count,
			"utime":         time.Now().UnixMilli(),
		}).Error
}

func (d *memberDAO) UpdatePreference(ctx context.Context, m Member) error {
	return d.db.WithContext(ctx).Model(&Member{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"timezone":          m.Timezone,
			"local_send_hour":   m.LocalSendHour,
			"local_send_minute": m.LocalSendMinute,
			"utc_send_hour":     m.UTCSendHour,
			"utc_send_minute":   m.UTCSendMinute,
			"utime":             time.Now().UnixMilli(),
		}).Error
}

func (d *memberDAO) UpdateUTCSendTime(ctx context.Context, id int64, hour, minute int16) error {
	return d.db.WithContext(ctx).Model(&Member{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"utc_send_hour":   hour,
			"utc_send_minute": minute,
			"utime":           time.Now().UnixMilli(),
		}).Error
}
