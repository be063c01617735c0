package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics - 可观测性指标
 * ========================================================================
 * 职责: 提供 Prometheus 指标注册和暴露
 * 设计: 除了通用的 HTTP 指标，还覆盖租户隔离核心关心的事件——
 *       鉴权拒绝、租户切换、审计写入失败
 * ======================================================================== */

var (
	// HTTPRequestDuration HTTP 请求延迟
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worklane",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestTotal HTTP 请求总数
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "http",
			Name:      "request_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthzDenialTotal 鉴权拒绝次数，按租户层级和要求的角色统计
	AuthzDenialTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "authz",
			Name:      "denial_total",
			Help:      "Total number of authorization denials",
		},
		[]string{"level", "role"},
	)

	// TenantSwitchTotal 租户切换次数，result: ok / denied
	TenantSwitchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "tenancy",
			Name:      "switch_total",
			Help:      "Total number of tenant switch attempts",
		},
		[]string{"kind", "result"},
	)

	// AuditWriteFailureTotal 审计事件写入失败次数
	// 审计失败不回滚业务操作，必须通过该指标和错误日志暴露
	AuditWriteFailureTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "audit",
			Name:      "write_failure_total",
			Help:      "Total number of failed audit event writes",
		},
	)

	// SlugConflictRetryTotal slug 唯一索引冲突后的重建次数
	SlugConflictRetryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "slug",
			Name:      "conflict_retry_total",
			Help:      "Total number of slug regenerations after unique index conflicts",
		},
		[]string{"entity"},
	)

	// CacheHitTotal 缓存命中次数
	CacheHitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklane",
			Subsystem: "cache",
			Name:      "hit_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_name", "hit"}, // hit: true, false
	)
)

// RegisterMetricsEndpoint 注册 /metrics 端点
func RegisterMetricsEndpoint(app *fiber.App) {
	// 使用 fasthttpadaptor 将 promhttp.Handler 适配到 Fiber
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// NewCounter 创建自定义 Counter
func NewCounter(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewHistogram 创建自定义 Histogram
func NewHistogram(namespace, subsystem, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
