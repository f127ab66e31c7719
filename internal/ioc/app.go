package ioc

import (
	"context"

	"gitee.com/flycash/push-scheduler/internal/service/scheduler"
	"github.com/gotomicro/ego/server/egin"
	"github.com/gotomicro/ego/task/ecron"
)

type App struct {
	Web       *egin.Component
	Crons     []ecron.Ecron
	Tasks     []Task
	Scheduler scheduler.Scheduler
}

func (a *App) StartTasks(ctx context.Context) {
	for _, t := range a.Tasks {
		go func(t Task) {
			t.Start(ctx)
		}(t)
	}
}
