package ioc

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "push_scheduler"

// InitRegisterer ego 的治理端口暴露的就是默认注册表
func InitRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
