package trigger

import (
	"gitee.com/flycash/push-scheduler/internal/domain"
)

const EventName = "push_scheduler_trigger"

// Event 调度触发消息，格式 {dryRun, sendTimeUTC, systemDateObject}
type Event = domain.Trigger
