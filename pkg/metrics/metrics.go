// Package metrics 定义 Prometheus 指标：batch 生产、组装失败、推理请求。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesTotal 成功产出的 batch 数
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvt_loader_batches_total",
			Help: "Total number of batches produced by the loader",
		},
		[]string{"source"},
	)

	// RowsTotal 成功产出的行数
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvt_loader_rows_total",
			Help: "Total number of rows delivered in batches",
		},
		[]string{"source"},
	)

	// RaggedValuesTotal ragged 列产出的 values 总数
	RaggedValuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvt_loader_ragged_values_total",
			Help: "Total number of multi-hot values delivered in ragged columns",
		},
		[]string{"source"},
	)

	// BatchErrorsTotal 准备 batch 失败次数，按错误代码区分
	BatchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvt_loader_batch_errors_total",
			Help: "Total number of batch preparation failures by error code",
		},
		[]string{"source", "code"},
	)

	// BatchPrepareDuration 单个 batch 读取+变换+组装耗时
	BatchPrepareDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nvt_loader_batch_prepare_duration_seconds",
			Help:    "Time to read, transform and assemble one batch",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"source"},
	)

	// InferRequestsTotal 推理请求数，按模型与状态区分
	InferRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvt_infer_requests_total",
			Help: "Total number of inference requests",
		},
		[]string{"model", "status"},
	)

	// InferDuration 推理请求耗时
	InferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nvt_infer_duration_seconds",
			Help:    "Inference request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// RecordBatch 记录一个成功产出的 batch
func RecordBatch(source string, rows, raggedValues int, d time.Duration) {
	BatchesTotal.WithLabelValues(source).Inc()
	RowsTotal.WithLabelValues(source).Add(float64(rows))
	RaggedValuesTotal.WithLabelValues(source).Add(float64(raggedValues))
	BatchPrepareDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordBatchError 记录一次 batch 准备失败；code 为空时记为 "unknown"
func RecordBatchError(source, code string) {
	if code == "" {
		code = "unknown"
	}
	BatchErrorsTotal.WithLabelValues(source, code).Inc()
}

// RecordInfer 记录一次推理请求
func RecordInfer(model string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	InferRequestsTotal.WithLabelValues(model, status).Inc()
	InferDuration.WithLabelValues(model).Observe(d.Seconds())
}
