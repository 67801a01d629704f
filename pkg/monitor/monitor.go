package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute 未注册路由统一归到一个标签，避免按原始路径爆炸
const unmatchedRoute = "unmatched"

var (
	// SignerRequestsTotal 按路由和状态码类别统计签名服务的 HTTP 请求
	SignerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signer_http_requests_total",
			Help: "HTTP requests served by the signer, by route and status class.",
		},
		[]string{"method", "route", "status_class"},
	)

	// SignerRequestDuration 签名计算都是毫秒级，桶偏小
	SignerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signer_http_request_duration_seconds",
			Help:    "Latency of signer HTTP routes.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		},
		[]string{"route"},
	)

	// SignerRequestsInFlight 正在处理的请求数
	SignerRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signer_http_requests_in_flight",
			Help: "Signer HTTP requests currently being served.",
		},
	)

	initOnce sync.Once
)

// Init 注册监控指标，可重复调用 (测试里每个 router 都会调用)
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(SignerRequestsTotal, SignerRequestDuration, SignerRequestsInFlight)
		InitBusinessMetrics()
	})
}

// statusClass 把 422 折叠成 "4xx"
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// PrometheusMiddleware 记录每个路由模板的请求量与耗时
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		SignerRequestsInFlight.Inc()
		defer SignerRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		SignerRequestsTotal.WithLabelValues(c.Request.Method, route, statusClass(c.Writer.Status())).Inc()
		SignerRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
