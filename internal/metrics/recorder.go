// Package metrics abstracts metric collection for pipeline runs.
package metrics

import (
	"context"
	"time"

	"github.com/gefpower/windprep/internal/core/model"
)

// MetricRecorder records metrics about pipeline run execution.
// Implementations exist for Prometheus and for a no-op fallback used when
// metrics are disabled or during testing.
type MetricRecorder interface {
	// RecordRunStart records the start of a PipelineRun.
	RecordRunStart(ctx context.Context, run *model.PipelineRun)

	// RecordRunEnd records the end of a PipelineRun, including its terminal
	// status and duration.
	RecordRunEnd(ctx context.Context, run *model.PipelineRun)

	// RecordRowsRead records the number of input rows read for a dataset.
	RecordRowsRead(ctx context.Context, dataset string, count int)

	// RecordRowsWritten records the number of output rows produced for a
	// dataset by a given sink.
	RecordRowsWritten(ctx context.Context, dataset string, sink string, count int)

	// RecordWriteFailure records a swallowed sink write failure.
	RecordWriteFailure(ctx context.Context, dataset string, sink string)

	// RecordStageDuration records the execution time of a pipeline stage
	// (read, reshape, write).
	RecordStageDuration(ctx context.Context, dataset string, stage string, duration time.Duration)
}
