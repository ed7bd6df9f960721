// Package metrics 提供监控指标功能.
// 支持 Prometheus 标准，收集 HTTP 与版本管理引擎的业务指标.
//
// Example:
//
//	import "github.com/yeisme/docvault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.RequestCounter.WithLabelValues("POST", "/api/v1/documents").Inc()
//	metrics.VersionCreated.Inc()
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/docvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// VersionCreated 成功创建的文档版本数.
	VersionCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_versions_created_total",
			Help: "Total number of document versions created",
		},
	)

	// NumberingConflicts 版本号分配冲突后重试的次数.
	NumberingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_version_numbering_conflicts_total",
			Help: "Total number of version numbering conflicts that triggered a retry",
		},
	)

	// Rollbacks 执行的回滚次数.
	Rollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_rollbacks_total",
			Help: "Total number of document rollbacks",
		},
	)

	// TagSyncFailures 对象存储标签同步失败次数（尽力而为，不影响主流程）.
	TagSyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_blob_tag_sync_failures_total",
			Help: "Total number of best-effort blob tag sync failures",
		},
	)

	// DocumentsPurged 被清扫器或手动永久删除的文档数.
	DocumentsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_documents_purged_total",
			Help: "Total number of documents permanently purged",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化指标注册.
func InitMetrics(cfg configs.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	collectorsList := []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		VersionCreated,
		NumberingConflicts,
		Rollbacks,
		TagSyncFailures,
		DocumentsPurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}

	for _, c := range collectorsList {
		if err := registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// Registry 返回应用的 Prometheus 注册表.
func Registry() *prometheus.Registry {
	return registry
}

// MountMetricsEndpoint 把 /metrics 挂到 gin 引擎上.
func MountMetricsEndpoint(cfg configs.MetricsConfig, engine *gin.Engine) {
	if !cfg.Enabled {
		return
	}

	path := cfg.Path
	if path == "" {
		path = DefaultMetricsPath
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

const DefaultMetricsPath = "/metrics"
