// Package metrics 提供基于Prometheus的指标收集
//
// 指标覆盖客户端出站请求这一条链路：
// - 请求总数/结果分布（Counter，标签method/endpoint/outcome）
// - 请求耗时分布（Histogram，自动计算P50、P90、P99）
// - 超时重放次数、凭证失效次数（Counter）
// - 在途请求数（Gauge）
//
// mockapi通过promhttp在/metrics暴露采集端点；
// 终端客户端默认只在内存累计，便于测试断言。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// RequestsTotal 出站请求总数（Counter）
	// 标签：method（GET/PUT/...）、endpoint（orders_search/order_detail/...）、
	// outcome（success/auth_expired/validation/network/server/timeout）
	RequestsTotal *prometheus.CounterVec

	// RequestDuration 出站请求耗时（Histogram）
	// 桶设置：1ms、10ms、100ms、500ms、1s、5s、10s
	RequestDuration *prometheus.HistogramVec

	// RequestsInProgress 在途请求数（Gauge）
	RequestsInProgress prometheus.Gauge

	// TimeoutRetriesTotal 超时重放次数（Counter）
	// 网关对超时只重放一次，这个计数可以直接反映网络质量
	TimeoutRetriesTotal prometheus.Counter

	// AuthExpiredTotal 凭证失效次数（Counter）
	AuthExpiredTotal prometheus.Counter
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次，注册所有指标到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdesk_requests_total",
			Help: "出站请求总数",
		},
		[]string{"method", "endpoint", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderdesk_request_duration_seconds",
			Help:    "出站请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	RequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderdesk_requests_in_progress",
			Help: "在途请求数",
		},
	)

	TimeoutRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdesk_timeout_retries_total",
			Help: "超时重放次数",
		},
	)

	AuthExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdesk_auth_expired_total",
			Help: "凭证失效次数",
		},
	)
}

// ObserveRequest 记录一次出站请求
// duration单位为秒；outcome为空时按success处理
func ObserveRequest(method, endpoint, outcome string, duration float64) {
	if !initialized {
		return
	}
	if outcome == "" {
		outcome = "success"
	}
	RequestsTotal.WithLabelValues(method, endpoint, outcome).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// IncTimeoutRetry 记录一次超时重放
func IncTimeoutRetry() {
	if !initialized {
		return
	}
	TimeoutRetriesTotal.Inc()
}

// IncAuthExpired 记录一次凭证失效
func IncAuthExpired() {
	if !initialized {
		return
	}
	AuthExpiredTotal.Inc()
}
