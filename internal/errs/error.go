package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	ErrMemberNotFound       = errors.New("会员记录不存在")
	ErrNoSendTimePreference = errors.New("会员未配置发送时间")
	ErrUnknownTimezone      = errors.New("无法识别的时区")

	ErrContentNotFound = errors.New("当日内容不存在")

	ErrDeliveryUnitNotFound  = errors.New("投递记录不存在")
	ErrDeliveryUnitDuplicate = errors.New("投递记录唯一索引冲突")

	ErrPushFailed   = errors.New("推送失败")
	ErrNoPushTokens = errors.New("没有可用的设备令牌")

	ErrRunInProgress = errors.New("当前时间窗口的调度正在执行")
)
