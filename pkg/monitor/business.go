package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	PreImagesTotal    *prometheus.CounterVec
	CompileTotal      *prometheus.CounterVec
	SignaturesTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标，由 Init 调用一次
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		PreImagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_preimages_total",
			Help: "Pre-image requests by chain and result",
		}, []string{"chain", "result"}),
		CompileTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_compile_total",
			Help: "Compile requests by chain and result",
		}, []string{"chain", "result"}),
		SignaturesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_signatures_attached_total",
			Help: "Number of external signatures attached to compiled transactions",
		}, []string{"chain"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signer_operation_duration_seconds",
			Help:    "Duration of pre-image and compile operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain", "operation"}),
	}
}

// ResultLabel 将 error 折叠成 success/failure 标签
func ResultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
