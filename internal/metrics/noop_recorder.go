package metrics

import (
	"context"
	"time"

	"github.com/gefpower/windprep/internal/core/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordRunStart does nothing.
func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, run *model.PipelineRun) {}

// RecordRunEnd does nothing.
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, run *model.PipelineRun) {}

// RecordRowsRead does nothing.
func (r *NoOpMetricRecorder) RecordRowsRead(ctx context.Context, dataset string, count int) {}

// RecordRowsWritten does nothing.
func (r *NoOpMetricRecorder) RecordRowsWritten(ctx context.Context, dataset string, sink string, count int) {
}

// RecordWriteFailure does nothing.
func (r *NoOpMetricRecorder) RecordWriteFailure(ctx context.Context, dataset string, sink string) {}

// RecordStageDuration does nothing.
func (r *NoOpMetricRecorder) RecordStageDuration(ctx context.Context, dataset string, stage string, duration time.Duration) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)
