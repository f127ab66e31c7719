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

// MemberRepository 会员仓储接口
type MemberRepository interface {
	Create(ctx context.Context, m domain.Member) (domain.Member, error)
	FindByID(ctx context.Context, id int64) (domain.Member, error)
	// ListAfter 返回游标之后的一页会员，按 (Ctime, ID) 升序
	ListAfter(ctx context.Context, cursor domain.MemberCursor, filter domain.MemberFilter, limit int) ([]domain.Member, error)
	// UpdateDeviceTokens 只持久化设备令牌（裁剪无效令牌后使用）
	UpdateDeviceTokens(ctx context.Context, id int64, tokens []string) error
	// UpdateSubscriptions 一次性持久化设备令牌、主题订阅和 UTC 发送时间缓存
	UpdateSubscriptions(ctx context.Context, m domain.Member) error
	// UpdatePreference 持久化时区、本地发送时间和 UTC 缓存
	UpdatePreference(ctx context.Context, m domain.Member) error
	// UpdateUTCSendTime 只刷新 UTC 发送时间缓存，比如夏令时切换之后
	UpdateUTCSendTime(ctx context.Context, id int64, bucket domain.Bucket) error
}

type memberRepository struct {
	dao dao.MemberDAO
}

// NewMemberRepository 创建会员仓储实例
func NewMemberRepository(d dao.MemberDAO) MemberRepository {
	return &memberRepository{dao: d}
}

func (r *memberRepository) Create(ctx context.Context, m domain.Member) (domain.Member, error) {
	entity, err := r.toEntity(m)
	if err != nil {
		return domain.Member{}, err
	}
	created, err := r.dao.Create(ctx, entity)
	if err != nil {
		return domain.Member{}, err
	}
	return r.toDomain(created)
}

func (r *memberRepository) FindByID(ctx context.Context, id int64) (domain.Member, error) {
	m, err := r.dao.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Member{}, fmt.Errorf("%w: id=%d", errs.ErrMemberNotFound, id)
		}
		return domain.Member{}, err
	}
	return r.toDomain(m)
}

func (r *memberRepository) ListAfter(ctx context.Context, cursor domain.MemberCursor,
	filter domain.MemberFilter, limit int,
) ([]domain.Member, error) {
	entities, err := r.dao.ListAfter(ctx, cursor.Ctime, cursor.ID,
		filter.WithDeviceTokensOnly, filter.WithPreferenceOnly, limit)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Member, 0, len(entities))
	for i := range entities {
		m, err1 := r.toDomain(entities[i])
		if err1 != nil {
			return nil, err1
		}
		res = append(res, m)
	}
	return res, nil
}

func (r *memberRepository) UpdateDeviceTokens(ctx context.Context, id int64, tokens []string) error {
	val, err := marshalStrings(tokens)
	if err != nil {
		return err
	}
	return r.dao.UpdateDeviceTokens(ctx, id, val, len(tokens))
}

func (r *memberRepository) UpdateSubscriptions(ctx context.Context, m domain.Member) error {
	entity, err := r.toEntity(m)
	if err != nil {
		return err
	}
	return r.dao.UpdateDevices(ctx, entity)
}

func (r *memberRepository) UpdatePreference(ctx context.Context, m domain.Member) error {
	entity, err := r.toEntity(m)
	if err != nil {
		return err
	}
	return r.dao.UpdatePreference(ctx, entity)
}

func (r *memberRepository) UpdateUTCSendTime(ctx context.Context, id int64, bucket domain.Bucket) error {
	if err := bucket.Validate(); err != nil {
		return err
	}
	return r.dao.UpdateUTCSendTime(ctx, id, int16(bucket.Hour), int16(bucket.Minute))
}

func (r *memberRepository) toEntity(m domain.Member) (dao.Member, error) {
	tokens, err := marshalStrings(m.DeviceTokens)
	if err != nil {
		return dao.Member{}, err
	}
	topics, err := marshalStrings(m.TopicSubscriptions)
	if err != nil {
		return dao.Member{}, err
	}
	entity := dao.Member{
		ID:                 m.ID,
		Timezone:           m.Timezone,
		DeviceTokens:       tokens,
		TokenCount:         len(m.DeviceTokens),
		TopicSubscriptions: topics,
	}
	if !m.Ctime.IsZero() {
		entity.Ctime = m.Ctime.UnixMilli()
	}
	if m.LocalSendTime != nil {
		entity.LocalSendHour = sql.NullInt16{Int16: int16(m.LocalSendTime.Hour), Valid: true}
		entity.LocalSendMinute = sql.NullInt16{Int16: int16(m.LocalSendTime.Minute), Valid: true}
	}
	if m.UTCSendTime != nil {
		entity.UTCSendHour = sql.NullInt16{Int16: int16(m.UTCSendTime.Hour), Valid: true}
		entity.UTCSendMinute = sql.NullInt16{Int16: int16(m.UTCSendTime.Minute), Valid: true}
	}
	return entity, nil
}

func (r *memberRepository) toDomain(m dao.Member) (domain.Member, error) {
	tokens, err := unmarshalStrings(m.DeviceTokens)
	if err != nil {
		return domain.Member{}, fmt.Errorf("解析设备令牌失败 id=%d: %w", m.ID, err)
	}
	topics, err := unmarshalStrings(m.TopicSubscriptions)
	if err != nil {
		return domain.Member{}, fmt.Errorf("解析主题订阅失败 id=%d: %w", m.ID, err)
	}
	res := domain.Member{
		ID:                 m.ID,
		Timezone:           m.Timezone,
		DeviceTokens:       tokens,
		TopicSubscriptions: topics,
		Ctime:              time.UnixMilli(m.Ctime),
		Utime:              time.UnixMilli(m.Utime),
	}
	if m.LocalSendHour.Valid && m.LocalSendMinute.Valid {
		res.LocalSendTime = &domain.SendTime{Hour: int(m.LocalSendHour.Int16), Minute: int(m.LocalSendMinute.Int16)}
	}
	if m.UTCSendHour.Valid && m.UTCSendMinute.Valid {
		res.UTCSendTime = &domain.Bucket{Hour: int(m.UTCSendHour.Int16), Minute: int(m.UTCSendMinute.Int16)}
	}
	return res, nil
}

func marshalStrings(vals []string) (sql.NullString, error) {
	if vals == nil {
		vals = []string{}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalStrings(val sql.NullString) ([]string, error) {
	if !val.Valid || val.String == "" {
		return nil, nil
	}
	var res []string
	err := json.Unmarshal([]byte(val.String), &res)
	return res, err
}
