package web

import (
	"errors"
	"net/http"
	"strconv"

	"gitee.com/flycash/push-scheduler/internal/domain"
	"gitee.com/flycash/push-scheduler/internal/errs"
	"gitee.com/flycash/push-scheduler/internal/event/trigger"
	"gitee.com/flycash/push-scheduler/internal/pkg/ratelimit"
	"gitee.com/flycash/push-scheduler/internal/service/member"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

// Handler 运维接口：手动触发调度、维护会员偏好和设备令牌
type Handler struct {
	producer trigger.TriggerEventProducer
	members  member.Service
	limiter  ratelimit.Limiter
	logger   *elog.Component
}

func NewHandler(producer trigger.TriggerEventProducer, members member.Service, limiter ratelimit.Limiter) *Handler {
	return &Handler{
		producer: producer,
		members:  members,
		limiter:  limiter,
		logger:   elog.DefaultLogger,
	}
}

// PrivateRoutes 运维接口，只在内网暴露
func (h *Handler) PrivateRoutes(server *gin.Engine) {
	server.POST("/trigger", h.limitTrigger, h.Trigger)
	mg := server.Group("/members")
	mg.PUT("/:id/preference", h.UpdatePreference)
	mg.POST("/:id/tokens", h.RegisterToken)
}

// Trigger 只负责投递触发消息，真正的调度由消费者执行
func (h *Handler) Trigger(ctx *gin.Context) {
	var req TriggerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: "请求格式错误"})
		return
	}
	evt := domain.Trigger{
		DryRun:      true,
		SendTimeUTC: req.SendTimeUTC,
		SystemDate:  req.SystemDate,
	}
	if req.DryRun != nil {
		evt.DryRun = *req.DryRun
	}
	if err := evt.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: err.Error()})
		return
	}
	if err := h.producer.Produce(ctx.Request.Context(), evt); err != nil {
		h.logger.Error("投递触发消息失败", elog.FieldErr(err), elog.Any("event", evt))
		ctx.JSON(http.StatusInternalServerError, Result{Code: 5, Msg: "系统错误"})
		return
	}
	ctx.JSON(http.StatusAccepted, Result{Msg: "OK", Data: evt})
}

// limitTrigger 手动触发按来源 IP 限流，限流器故障时放行
func (h *Handler) limitTrigger(ctx *gin.Context) {
	limited, err := h.limiter.Limit(ctx.Request.Context(), "trigger:"+ctx.ClientIP())
	if err != nil {
		h.logger.Warn("限流判断失败", elog.FieldErr(err))
		ctx.Next()
		return
	}
	if limited {
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, Result{Code: 4, Msg: "触发过于频繁"})
		return
	}
	ctx.Next()
}

func (h *Handler) UpdatePreference(ctx *gin.Context) {
	id, ok := h.memberID(ctx)
	if !ok {
		return
	}
	var req PreferenceReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: "请求格式错误"})
		return
	}
	m, err := h.members.UpdatePreference(ctx.Request.Context(), id,
		domain.SendTime{Hour: req.Hour, Minute: req.Minute}, req.Timezone)
	if err != nil {
		h.writeErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: newMemberVO(m)})
}

func (h *Handler) RegisterToken(ctx *gin.Context) {
	id, ok := h.memberID(ctx)
	if !ok {
		return
	}
	var req TokenReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: "请求格式错误"})
		return
	}
	m, err := h.members.RegisterDeviceToken(ctx.Request.Context(), id, req.Token)
	if err != nil {
		h.writeErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, Result{Msg: "OK", Data: newMemberVO(m)})
}

func (h *Handler) memberID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: "会员ID错误"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter), errors.Is(err, errs.ErrUnknownTimezone):
		ctx.JSON(http.StatusBadRequest, Result{Code: 4, Msg: err.Error()})
	case errors.Is(err, errs.ErrMemberNotFound):
		ctx.JSON(http.StatusNotFound, Result{Code: 4, Msg: "会员不存在"})
	default:
		h.logger.Error("处理会员请求失败", elog.FieldErr(err))
		ctx.JSON(http.StatusInternalServerError, Result{Code: 5, Msg: "系统错误"})
	}
}
