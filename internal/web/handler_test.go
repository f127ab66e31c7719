package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"gitee.com/flycash/push-scheduler/internal/pkg/ratelimit"
	limitmocks "gitee.com/flycash/push-scheduler/internal/pkg/ratelimit/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingProducer struct {
	events []trigger.Event
	err    error
}

func (p *recordingProducer) Produce(_ context.Context, evt trigger.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type fakeMemberService struct {
	err error
}

func (s *fakeMemberService) UpdatePreference(_ context.Context, id int64, st domain.SendTime, tz string) (domain.Member, error) {
	if s.err != nil {
		return domain.Member{}, s.err
	}
	return domain.Member{ID: id, Timezone: tz, LocalSendTime: &st}, nil
}

func (s *fakeMemberService) RegisterDeviceToken(_ context.Context, id int64, token string) (domain.Member, error) {
	if s.err != nil {
		return domain.Member{}, s.err
	}
	return domain.Member{ID: id, DeviceTokens: []string{token}}, nil
}

func newServer(p *recordingProducer, ms *fakeMemberService, l ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := gin.New()
	NewHandler(p, ms, l).PrivateRoutes(server)
	return server
}

func TestHandler_Trigger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		body       string
		produceErr error
		limited    bool
		limitErr   error
		wantCode   int
		wantDryRun bool
		wantEvents int
	}{
		{
			name:       "默认演练",
			body:       `{}`,
			wantCode:   http.StatusAccepted,
			wantDryRun: true,
			wantEvents: 1,
		},
		{
			name:       "显式关闭演练",
			body:       `{"dryRun":false,"sendTimeUTC":{"hour":2,"minute":15}}`,
			wantCode:   http.StatusAccepted,
			wantDryRun: false,
			wantEvents: 1,
		},
		{
			name:     "时间桶非法",
			body:     `{"sendTimeUTC":{"hour":2,"minute":10}}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "请求体不是JSON",
			body:     `abc`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "被限流",
			body:     `{}`,
			limited:  true,
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:       "限流器故障时放行",
			body:       `{}`,
			limitErr:   errors.New("mock redis error"),
			wantCode:   http.StatusAccepted,
			wantDryRun: true,
			wantEvents: 1,
		},
		{
			name:       "投递失败",
			body:       `{}`,
			produceErr: errors.New("mock kafka error"),
			wantCode:   http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &recordingProducer{err: tc.produceErr}
			ctrl := gomock.NewController(t)
			limiter := limitmocks.NewMockLimiter(ctrl)
			limiter.EXPECT().Limit(gomock.Any(), gomock.Any()).Return(tc.limited, tc.limitErr)
			server := newServer(p, &fakeMemberService{}, limiter)

			req := httptest.NewRequest(http.MethodPost, "/trigger", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			assert.Equal(t, tc.wantCode, recorder.Code)
			require.Len(t, p.events, tc.wantEvents)
			if tc.wantEvents > 0 {
				assert.Equal(t, tc.wantDryRun, p.events[0].DryRun)
			}
		})
	}
}

func TestHandler_Members(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		method   string
		path     string
		body     string
		svcErr   error
		wantCode int
	}{
		{
			name:     "更新偏好",
			method:   http.MethodPut,
			path:     "/members/1/preference",
			body:     `{"hour":8,"minute":30,"timezone":"Asia/Shanghai"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "时区无法识别",
			method:   http.MethodPut,
			path:     "/members/1/preference",
			body:     `{"hour":8,"minute":30,"timezone":"Mars/Base"}`,
			svcErr:   fmt.Errorf("%w: Mars/Base", errs.ErrUnknownTimezone),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "会员不存在",
			method:   http.MethodPost,
			path:     "/members/2/tokens",
			body:     `{"token":"t1"}`,
			svcErr:   fmt.Errorf("%w: id=2", errs.ErrMemberNotFound),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "会员ID非法",
			method:   http.MethodPost,
			path:     "/members/abc/tokens",
			body:     `{"token":"t1"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "登记令牌",
			method:   http.MethodPost,
			path:     "/members/3/tokens",
			body:     `{"token":"t1"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "存储异常",
			method:   http.MethodPost,
			path:     "/members/3/tokens",
			body:     `{"token":"t1"}`,
			svcErr:   errors.New("mock db error"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			server := newServer(&recordingProducer{}, &fakeMemberService{err: tc.svcErr}, limitmocks.NewMockLimiter(ctrl))

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantCode, recorder.Code)
			var res Result
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
			if tc.wantCode == http.StatusOK {
				assert.Equal(t, "OK", res.Msg)
			}
		})
	}
}
