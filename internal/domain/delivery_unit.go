package domain

import (
	"time"
)

// Medium 投递媒介。本服务只写多播直推，历史里可能有其他链路写入的媒介
type Medium string

// MediumPush 按设备令牌多播
const MediumPush Medium = "PUSH"

// DeliveryRecord 一次成功投递的记录
type DeliveryRecord struct {
	Medium    Medium    `json:"medium"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// DeliveryUnit 一个会员对一个内容单元的投递状态，(MemberID, ContentID) 唯一
type DeliveryUnit struct {
	ID                uint64
	MemberID          int64
	ContentID         int64
	FirstDispatchedAt time.Time
	LastDispatchedAt  time.Time
	Completed         bool
	CompletedAt       time.Time
	History           []DeliveryRecord
	// Persisted 是否已经落库，新构造的投递记录为 false
	Persisted bool
}

// NewDeliveryUnit 构造一个尚未落库的投递记录
func NewDeliveryUnit(id uint64, memberID, contentID int64) DeliveryUnit {
	return DeliveryUnit{
		ID:        id,
		MemberID:  memberID,
		ContentID: contentID,
	}
}

// AlreadyPushed 历史里已经有多播直推的记录
func (u DeliveryUnit) AlreadyPushed() bool {
	return u.hasMedium(MediumPush)
}

func (u DeliveryUnit) hasMedium(medium Medium) bool {
	for i := range u.History {
		if u.History[i].Medium == medium {
			return true
		}
	}
	return false
}

// Touch 记录一次调度尝试，不管有没有真的推送出去
func (u *DeliveryUnit) Touch(now time.Time) {
	if u.FirstDispatchedAt.IsZero() {
		u.FirstDispatchedAt = now
	}
	u.LastDispatchedAt = now
}

// Append 追加一次成功投递，并把记录标记为完成
func (u *DeliveryUnit) Append(record DeliveryRecord) {
	u.Touch(record.Timestamp)
	u.History = append(u.History, record)
	if !u.Completed {
		u.Completed = true
		u.CompletedAt = record.Timestamp
	}
}

// MergeHistory 合并另一份投递历史，按媒介和时间去重，用于并发创建冲突后的合并
func (u *DeliveryUnit) MergeHistory(other []DeliveryRecord) {
	for _, r := range other {
		dup := false
		for _, mine := range u.History {
			if mine.Medium == r.Medium && mine.Timestamp.Equal(r.Timestamp) {
				dup = true
				break
			}
		}
		if !dup {
			u.History = append(u.History, r)
		}
	}
}
