package web

import (
	"gitee.com/flycash/push-scheduler/internal/domain"
)

type Result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

type TriggerReq struct {
	// DryRun 不传时默认演练，只统计不推送
	DryRun      *bool                  `json:"dryRun"`
	SendTimeUTC *domain.Bucket         `json:"sendTimeUTC"`
	SystemDate  *domain.DateComponents `json:"systemDateObject"`
}

type PreferenceReq struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Timezone string `json:"timezone"`
}

type TokenReq struct {
	Token string `json:"token"`
}

type MemberVO struct {
	ID                 int64            `json:"id"`
	Timezone           string           `json:"timezone"`
	LocalSendTime      *domain.SendTime `json:"localSendTime,omitempty"`
	UTCSendTime        *domain.Bucket   `json:"utcSendTime,omitempty"`
	DeviceTokens       int              `json:"deviceTokens"`
	TopicSubscriptions []string         `json:"topicSubscriptions"`
}

func newMemberVO(m domain.Member) MemberVO {
	return MemberVO{
		ID:                 m.ID,
		Timezone:           m.Timezone,
		LocalSendTime:      m.LocalSendTime,
		UTCSendTime:        m.UTCSendTime,
		DeviceTokens:       len(m.DeviceTokens),
		TopicSubscriptions: m.TopicSubscriptions,
	}
}
