package ioc

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	"gitee.com/flycash/push-scheduler/internal/repository"
	"gitee.com/flycash/push-scheduler/internal/service/push"
	"gitee.com/flycash/push-scheduler/internal/service/push/fcm"
	"gitee.com/flycash/push-scheduler/internal/service/push/logging"
	"gitee.com/flycash/push-scheduler/internal/service/push/metrics"
	"gitee.com/flycash/push-scheduler/internal/service/push/tracing"
	"gitee.com/flycash/push-scheduler/internal/service/window"
	"github.com/gotomicro/ego/core/econf"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
)

type pushConfig struct {
	// Provider fcm 或者 logging
	Provider        string `yaml:"provider"`
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`
	TopicPrefix     string `yaml:"topicPrefix"`
}

func loadPushConfig() pushConfig {
	cfg := pushConfig{
		Provider:    "fcm",
		TopicPrefix: "send_time",
	}
	if err := econf.UnmarshalKey("push", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

// InitPushClient 底层客户端外面依次套上指标和链路追踪
func InitPushClient(reg prometheus.Registerer) push.Client {
	cfg := loadPushConfig()
	var c push.Client
	switch cfg.Provider {
	case "logging":
		c = logging.NewClient()
	default:
		c = initFCMClient(cfg)
	}
	return tracing.NewClient(metrics.NewClient(cfg.Provider, c, reg))
}

func initFCMClient(cfg pushConfig) *fcm.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		panic(err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		panic(err)
	}
	return fcm.NewClient(client)
}

func InitTopicManager(client push.Client, repo repository.MemberRepository, matcher window.Matcher) push.TopicManager {
	return push.NewTopicManager(client, repo, matcher, loadPushConfig().TopicPrefix, time.Now)
}
