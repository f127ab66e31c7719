//go:build wireinject

package ioc

import (
	"gitee.com/flycash/push-scheduler/internal/event/report"
	"gitee.com/flycash/push-scheduler/internal/ioc"
	"gitee.com/flycash/push-scheduler/internal/repository"
	"gitee.com/flycash/push-scheduler/internal/repository/dao"
	"gitee.com/flycash/push-scheduler/internal/service/ledger"
	"gitee.com/flycash/push-scheduler/internal/service/member"
	"gitee.com/flycash/push-scheduler/internal/service/processor"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"gitee.com/flycash/push-scheduler/internal/service/scanner"
	"gitee.com/flycash/push-scheduler/internal/service/scheduler"
	"gitee.com/flycash/push-scheduler/internal/web"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitRegisterer,
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitGoCache,
		ioc.InitLocalContentCache,
		ioc.InitRedisContentCache,
		ioc.InitKafkaProducer,
		ioc.InitKafkaConsumer,
		ioc.InitClock,
	)
	memberSet = wire.NewSet(
		dao.NewMemberDAO,
		repository.NewMemberRepository,
		member.NewService,
		wire.Bind(new(scanner.MemberLister), new(repository.MemberRepository)),
		wire.Bind(new(processor.MemberWriter), new(repository.MemberRepository)),
	)
	contentSet = wire.NewSet(
		dao.NewContentDAO,
		repository.NewContentRepository,
		wire.Bind(new(processor.ContentFinder), new(repository.ContentRepository)),
	)
	ledgerSet = wire.NewSet(
		dao.NewDeliveryUnitDAO,
		repository.NewDeliveryUnitRepository,
		ledger.NewLedger,
	)
	pushSet = wire.NewSet(
		ioc.InitPushClient,
		ioc.InitTopicManager,
		push.NewDispatcher,
	)
	schedulerSet = wire.NewSet(
		ioc.InitSchedulerConfig,
		ioc.InitMatcher,
		ioc.InitRunReporter,
		wire.Bind(new(scheduler.Reporter), new(*report.Reporter)),
		scanner.NewScanner,
		processor.NewProcessor,
		scheduler.NewDLocker,
		scheduler.NewScheduler,
	)
)

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,

		memberSet,
		contentSet,
		ledgerSet,
		pushSet,
		schedulerSet,

		// 触发消息
		ioc.InitTriggerEventProducer,
		ioc.InitTriggerConsumer,
		ioc.InitTasks,
		ioc.Crons,

		// 运维接口
		ioc.InitTriggerLimiter,
		web.NewHandler,
		ioc.InitWebServer,
		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App)
}
