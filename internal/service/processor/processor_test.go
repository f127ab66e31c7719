package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/service/ledger"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	pushmocks "gitee.com/flycash/push-scheduler/internal/service/push/mocks"
	"gitee.com/flycash/push-scheduler/internal/service/window"
	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type unitKey struct {
	memberID, contentID int64
}

type memoryUnits struct {
	mu    sync.Mutex
	units map[unitKey]domain.DeliveryUnit
	saves int
	// 不为 nil 时所有写入都失败
	writeErr error
}

func (m *memoryUnits) FindByKey(_ context.Context, memberID, contentID int64) (domain.DeliveryUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[unitKey{memberID, contentID}]
	if !ok {
		return domain.DeliveryUnit{}, errs.ErrDeliveryUnitNotFound
	}
	u.Persisted = true
	return u, nil
}

func (m *memoryUnits) Create(_ context.Context, u domain.DeliveryUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.writeErr != nil {
		return m.writeErr
	}
	k := unitKey{u.MemberID, u.ContentID}
	if _, ok := m.units[k]; ok {
		return errs.ErrDeliveryUnitDuplicate
	}
	m.units[k] = u
	return nil
}

func (m *memoryUnits) Update(_ context.Context, u domain.DeliveryUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.units[unitKey{u.MemberID, u.ContentID}] = u
	return nil
}

type memoryContents map[string]domain.ContentUnit

func (c memoryContents) FindByDate(_ context.Context, date domain.LocalDate) (domain.ContentUnit, error) {
	if date.Day == 31 {
		panic("content store exploded")
	}
	u, ok := c[date.String()]
	if !ok {
		return domain.ContentUnit{}, fmt.Errorf("%w: %s", errs.ErrContentNotFound, date)
	}
	return u, nil
}

type memoryMembers struct {
	saved map[int64][]string
	utc   map[int64]domain.Bucket
}

func (m *memoryMembers) UpdateDeviceTokens(_ context.Context, id int64, tokens []string) error {
	m.saved[id] = tokens
	return nil
}

func (m *memoryMembers) UpdateUTCSendTime(_ context.Context, id int64, bucket domain.Bucket) error {
	m.utc[id] = bucket
	return nil
}

type ProcessorTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	client *pushmocks.MockClient
	units  *memoryUnits
	tokens *memoryMembers
	now    time.Time
	svc    Processor
}

func TestProcessorSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ProcessorTestSuite))
}

func (s *ProcessorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = pushmocks.NewMockClient(s.ctrl)
	s.units = &memoryUnits{units: map[unitKey]domain.DeliveryUnit{}}
	s.tokens = &memoryMembers{saved: map[int64][]string{}, utc: map[int64]domain.Bucket{}}
	// 7月丹佛是 UTC-6
	s.now = time.Date(2025, 7, 15, 13, 2, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	idGen := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) { return 1, nil },
	})
	contents := memoryContents{
		"2025-07-15": {ID: 715, Date: domain.LocalDate{Year: 2025, Month: time.July, Day: 15}, Title: "早安", Body: "今天的内容"},
	}
	s.svc = NewProcessor(
		window.NewMatcher(false, clock),
		contents,
		ledger.NewLedger(s.units, idGen),
		push.NewDispatcher(s.client),
		s.tokens,
		clock,
	)
}

func (s *ProcessorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ProcessorTestSuite) denver(tokens ...string) domain.Member {
	return domain.Member{
		ID:            1,
		Timezone:      "America/Denver",
		LocalSendTime: &domain.SendTime{Hour: 7, Minute: 0},
		DeviceTokens:  tokens,
	}
}

func (s *ProcessorTestSuite) request(m domain.Member, target domain.Bucket) Request {
	return Request{Member: m, Target: target, Ref: s.now}
}

func (s *ProcessorTestSuite) TestWindow() {
	t := s.T()
	testCases := []struct {
		name   string
		member domain.Member
		target domain.Bucket
		want   domain.ResultKind
	}{
		{name: "没有偏好", member: domain.Member{ID: 2}, target: domain.Bucket{Hour: 13}, want: domain.ResultNoPreference},
		{name: "差一刻钟不在窗口", member: s.denver("a"), target: domain.Bucket{Hour: 13, Minute: 15}, want: domain.ResultNoWindow},
		{
			name: "会员本地已经是第二天且没有内容",
			member: domain.Member{
				ID: 3, Timezone: "Pacific/Auckland",
				LocalSendTime: &domain.SendTime{Hour: 1, Minute: 0},
			},
			target: domain.Bucket{Hour: 13},
			want:   domain.ResultNoContent,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := s.svc.Process(context.Background(), s.request(tc.member, tc.target))
			assert.Equal(t, tc.want, res.Kind)
			assert.False(t, res.Attempted())
		})
	}
	assert.Zero(t, s.units.saves)
}

func (s *ProcessorTestSuite) TestIdempotence() {
	t := s.T()
	ctx := context.Background()
	member := s.denver("a", "b")
	target := domain.Bucket{Hour: 13, Minute: 0}

	s.client.EXPECT().SendMulticast(gomock.Any(), []string{"a", "b"}, gomock.Any()).
		Return(domain.BatchResult{SuccessCount: 2}, nil).Times(1)

	first := s.svc.Process(ctx, s.request(member, target))
	require.Equal(t, domain.ResultDispatched, first.Kind)
	assert.True(t, first.IsSendTimeWindow())
	assert.True(t, first.Attempted())
	assert.True(t, first.AtLeastOneSuccess())
	assert.True(t, first.Success())

	second := s.svc.Process(ctx, s.request(member, target))
	assert.Equal(t, domain.ResultMatched, second.Kind)
	assert.Equal(t, domain.ReasonAlreadyPushed, second.Reason)
	assert.Equal(t, first.DeliveryUnitID, second.DeliveryUnitID)

	stored := s.units.units[unitKey{1, 715}]
	assert.Len(t, stored.History, 1)
	assert.True(t, stored.Completed)
	assert.Equal(t, 2, s.units.saves, "第二次调用仍然会写一次")
}

func (s *ProcessorTestSuite) TestZeroTokens() {
	t := s.T()
	res := s.svc.Process(context.Background(), s.request(s.denver(), domain.Bucket{Hour: 13}))
	assert.Equal(t, domain.ResultMatched, res.Kind)
	assert.Equal(t, domain.ReasonNoDeviceTokens, res.Reason)
	assert.False(t, res.Attempted())
	assert.True(t, res.Success())

	stored, ok := s.units.units[unitKey{1, 715}]
	require.True(t, ok)
	assert.Empty(t, stored.History)
	assert.False(t, stored.Completed)
	assert.True(t, stored.LastDispatchedAt.Equal(s.now))
}

func (s *ProcessorTestSuite) TestPruneTokens() {
	t := s.T()
	s.client.EXPECT().SendMulticast(gomock.Any(), []string{"a", "b", "c"}, gomock.Any()).
		Return(domain.BatchResult{
			SuccessCount: 2,
			FailureCount: 1,
			Failures:     []domain.TokenFailure{{Index: 1, Token: "b", Code: domain.PushCodeTokenNotRegistered}},
		}, nil)

	res := s.svc.Process(context.Background(), s.request(s.denver("a", "b", "c"), domain.Bucket{Hour: 13}))
	assert.Equal(t, []string{"b"}, res.PrunedTokens)
	assert.Equal(t, []string{"a", "c"}, s.tokens.saved[1])
}

func (s *ProcessorTestSuite) TestTransientFailure() {
	t := s.T()
	s.client.EXPECT().SendMulticast(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.BatchResult{
			FailureCount: 1,
			Failures:     []domain.TokenFailure{{Index: 0, Token: "a", Code: domain.PushCodeUnavailable}},
		}, nil)

	res := s.svc.Process(context.Background(), s.request(s.denver("a"), domain.Bucket{Hour: 13}))
	assert.True(t, res.Attempted())
	assert.False(t, res.Success())
	assert.Empty(t, res.PrunedTokens)
	assert.Empty(t, s.tokens.saved)

	stored := s.units.units[unitKey{1, 715}]
	assert.Empty(t, stored.History, "推送全部失败时不记录历史")
	assert.True(t, stored.LastDispatchedAt.Equal(s.now), "但仍然记录尝试")
}

func (s *ProcessorTestSuite) TestDryRun() {
	t := s.T()
	req := s.request(s.denver("a"), domain.Bucket{Hour: 13})
	req.DryRun = true
	res := s.svc.Process(context.Background(), req)
	assert.Equal(t, domain.ResultMatched, res.Kind)
	assert.Equal(t, domain.ReasonDryRun, res.Reason)
	assert.Zero(t, s.units.saves)
}

func (s *ProcessorTestSuite) TestPanic() {
	t := s.T()
	ref := time.Date(2025, 7, 31, 13, 0, 0, 0, time.UTC)
	res := s.svc.Process(context.Background(), Request{Member: s.denver("a"), Target: domain.Bucket{Hour: 13}, Ref: ref})
	assert.Equal(t, domain.ResultFailed, res.Kind)
	assert.False(t, res.Success())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "panic")
}

func (s *ProcessorTestSuite) TestPruneTokensWhenLedgerFails() {
	t := s.T()
	s.units.writeErr = errors.New("db down")
	s.client.EXPECT().SendMulticast(gomock.Any(), []string{"a", "b"}, gomock.Any()).
		Return(domain.BatchResult{
			SuccessCount: 1,
			FailureCount: 1,
			Failures:     []domain.TokenFailure{{Index: 1, Token: "b", Code: domain.PushCodeTokenNotRegistered}},
		}, nil)

	res := s.svc.Process(context.Background(), s.request(s.denver("a", "b"), domain.Bucket{Hour: 13}))
	assert.Equal(t, domain.ResultFailed, res.Kind)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.NotZero(t, res.DeliveryUnitID)
	assert.Equal(t, []string{"b"}, res.PrunedTokens)
	assert.Equal(t, []string{"a"}, s.tokens.saved[1])
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "db down")
}

func (s *ProcessorTestSuite) TestPayloadRejected() {
	t := s.T()
	s.client.EXPECT().SendMulticast(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.BatchResult{
			FailureCount: 2,
			Failures: []domain.TokenFailure{
				{Index: 0, Token: "a", Code: domain.PushCodeInvalidArgument},
				{Index: 1, Token: "b", Code: domain.PushCodeInvalidArgument},
			},
		}, nil)

	res := s.svc.Process(context.Background(), s.request(s.denver("a", "b"), domain.Bucket{Hour: 13}))
	assert.True(t, res.Attempted())
	assert.Empty(t, res.PrunedTokens, "消息体有问题不能删令牌")
	assert.Empty(t, s.tokens.saved)
}

func (s *ProcessorTestSuite) TestRefreshUTCSendTime() {
	t := s.T()
	testCases := []struct {
		name    string
		member  domain.Member
		target  domain.Bucket
		dryRun  bool
		want    domain.ResultKind
		wantUTC *domain.Bucket
	}{
		{
			name: "冬令时的缓存在夏令时被刷新",
			member: domain.Member{
				ID: 1, Timezone: "America/Denver",
				LocalSendTime: &domain.SendTime{Hour: 7},
				UTCSendTime:   &domain.Bucket{Hour: 14},
			},
			target:  domain.Bucket{Hour: 13},
			want:    domain.ResultNoWindow,
			wantUTC: &domain.Bucket{Hour: 13},
		},
		{
			name: "缓存没有过期不写",
			member: domain.Member{
				ID: 1, Timezone: "America/Denver",
				LocalSendTime: &domain.SendTime{Hour: 7},
				UTCSendTime:   &domain.Bucket{Hour: 13},
			},
			target: domain.Bucket{Hour: 13, Minute: 15},
			want:   domain.ResultNoWindow,
		},
		{
			name: "没有时区不写",
			member: domain.Member{
				ID: 1, LocalSendTime: &domain.SendTime{Hour: 7},
				UTCSendTime: &domain.Bucket{Hour: 9},
			},
			target: domain.Bucket{Hour: 13},
			want:   domain.ResultNoWindow,
		},
		{
			name: "试运行不写",
			member: domain.Member{
				ID: 1, Timezone: "America/Denver",
				LocalSendTime: &domain.SendTime{Hour: 7},
				UTCSendTime:   &domain.Bucket{Hour: 14},
			},
			target: domain.Bucket{Hour: 13},
			dryRun: true,
			want:   domain.ResultNoWindow,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s.tokens.utc = map[int64]domain.Bucket{}
			req := s.request(tc.member, tc.target)
			req.DryRun = tc.dryRun
			res := s.svc.Process(context.Background(), req)
			assert.Equal(t, tc.want, res.Kind)
			got, ok := s.tokens.utc[tc.member.ID]
			if tc.wantUTC == nil {
				assert.False(t, ok)
				return
			}
			assert.Equal(t, *tc.wantUTC, got)
		})
	}
}
