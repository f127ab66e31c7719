package member

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/repository"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"github.com/gotomicro/ego/core/elog"
)

// Service 会员发送偏好和设备令牌的维护
type Service interface {
	// UpdatePreference 更新时区和本地发送时间，重新推导 UTC 缓存并对账主题订阅
	UpdatePreference(ctx context.Context, memberID int64, sendTime domain.SendTime, timezone string) (domain.Member, error)
	// RegisterDeviceToken 登记设备令牌，重复登记不报错
	RegisterDeviceToken(ctx context.Context, memberID int64, token string) (domain.Member, error)
}

type service struct {
	repo   repository.MemberRepository
	topics push.TopicManager
	clock  func() time.Time
	logger *elog.Component
}

func NewService(repo repository.MemberRepository, topics push.TopicManager, clock func() time.Time) Service {
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:   repo,
		topics: topics,
		clock:  clock,
		logger: elog.DefaultLogger,
	}
}

func (s *service) UpdatePreference(ctx context.Context, memberID int64, sendTime domain.SendTime, timezone string) (domain.Member, error) {
	if err := sendTime.Validate(); err != nil {
		return domain.Member{}, err
	}
	// 提前换算一次，顺便校验时区
	b, err := domain.UTCBucketForMember(sendTime, timezone, s.clock())
	if err != nil {
		return domain.Member{}, err
	}
	m, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		return domain.Member{}, err
	}
	m.Timezone = timezone
	m.LocalSendTime = &sendTime
	m.UTCSendTime = &b
	if err = s.repo.UpdatePreference(ctx, m); err != nil {
		return domain.Member{}, err
	}
	return s.reconcile(ctx, m), nil
}

func (s *service) RegisterDeviceToken(ctx context.Context, memberID int64, token string) (domain.Member, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Member{}, fmt.Errorf("%w: 设备令牌为空", errs.ErrInvalidParameter)
	}
	m, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		return domain.Member{}, err
	}
	if !m.AddDeviceToken(token) {
		return m, nil
	}
	if err = s.repo.UpdateDeviceTokens(ctx, m.ID, m.DeviceTokens); err != nil {
		return domain.Member{}, err
	}
	return s.reconcile(ctx, m), nil
}

// reconcile 主题对账失败只记录日志，偏好本身已经保存成功
func (s *service) reconcile(ctx context.Context, m domain.Member) domain.Member {
	res, err := s.topics.Reconcile(ctx, m)
	if err != nil {
		s.logger.Warn("会员主题订阅对账失败", elog.Int64("memberID", m.ID), elog.FieldErr(err))
	}
	return res.Member
}
