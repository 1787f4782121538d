package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gefpower/windprep/internal/core/model"
	"github.com/gefpower/windprep/internal/support/logger"
)

// PrometheusRecorder is a Prometheus implementation of MetricRecorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec

	rowsReadCount     *prometheus.CounterVec
	rowsWrittenCount  *prometheus.CounterVec
	writeFailureCount *prometheus.CounterVec

	stageDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder backed by a dedicated
// registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "windprep_run_duration_seconds",
			Help:    "Duration of preprocessing runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset", "status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windprep_run_status_total",
			Help: "Total number of preprocessing runs by terminal status.",
		}, []string{"dataset", "status"}),
		rowsReadCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windprep_rows_read_total",
			Help: "Total input rows read by dataset.",
		}, []string{"dataset"}),
		rowsWrittenCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windprep_rows_written_total",
			Help: "Total output rows written by dataset and sink.",
		}, []string{"dataset", "sink"}),
		writeFailureCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "windprep_write_failures_total",
			Help: "Total swallowed sink write failures by dataset and sink.",
		}, []string{"dataset", "sink"}),
		stageDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "windprep_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset", "stage"}),
	}

	registry.MustRegister(
		r.runDurationSeconds,
		r.runStatusCounter,
		r.rowsReadCount,
		r.rowsWrittenCount,
		r.writeFailureCount,
		r.stageDurationSeconds,
	)
	return r
}

// Registry exposes the recorder's registry for HTTP exposition.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the recorder's metrics.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRunStart records the start of a PipelineRun.
func (r *PrometheusRecorder) RecordRunStart(ctx context.Context, run *model.PipelineRun) {
	logger.Debugf("Metrics: run %s started (dataset: %s)", run.ID, run.Dataset)
}

// RecordRunEnd records the terminal status and duration of a PipelineRun.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, run *model.PipelineRun) {
	status := string(run.Status)
	r.runStatusCounter.WithLabelValues(run.Dataset, status).Inc()
	r.runDurationSeconds.WithLabelValues(run.Dataset, status).Observe(run.Duration().Seconds())
}

// RecordRowsRead records input rows read.
func (r *PrometheusRecorder) RecordRowsRead(ctx context.Context, dataset string, count int) {
	r.rowsReadCount.WithLabelValues(dataset).Add(float64(count))
}

// RecordRowsWritten records output rows written.
func (r *PrometheusRecorder) RecordRowsWritten(ctx context.Context, dataset string, sink string, count int) {
	r.rowsWrittenCount.WithLabelValues(dataset, sink).Add(float64(count))
}

// RecordWriteFailure records a swallowed sink write failure.
func (r *PrometheusRecorder) RecordWriteFailure(ctx context.Context, dataset string, sink string) {
	r.writeFailureCount.WithLabelValues(dataset, sink).Inc()
}

// RecordStageDuration records the execution time of a pipeline stage.
func (r *PrometheusRecorder) RecordStageDuration(ctx context.Context, dataset string, stage string, duration time.Duration) {
	r.stageDurationSeconds.WithLabelValues(dataset, stage).Observe(duration.Seconds())
}

var _ MetricRecorder = (*PrometheusRecorder)(nil)
