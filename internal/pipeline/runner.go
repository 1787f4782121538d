// Package pipeline orchestrates the preprocessing of configured datasets:
// read raw observations, reshape to a wide table, and write both sinks.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/core/model"
	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/metrics"
	"github.com/gefpower/windprep/internal/repository"
	"github.com/gefpower/windprep/internal/reshape"
	"github.com/gefpower/windprep/internal/step/reader"
	"github.com/gefpower/windprep/internal/step/writer"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const moduleName = "pipeline"

// Stage names used for duration metrics.
const (
	stageRead    = "read"
	stageReshape = "reshape"
	stageWrite   = "write"
)

// Sink names used for metrics and failure messages.
const (
	sinkNative   = "gob"
	sinkColumnar = "parquet"
)

// Runner executes the preprocessing pipeline for every configured dataset.
type Runner struct {
	cfg      *config.Config
	repo     repository.RunRepository
	recorder metrics.MetricRecorder
	native   writer.TableWriter
	columnar writer.TableWriter
}

// NewRunner assembles a Runner from its collaborators.
func NewRunner(
	cfg *config.Config,
	repo repository.RunRepository,
	recorder metrics.MetricRecorder,
) (*Runner, error) {
	out := cfg.Windprep.Batch.Output
	native, err := writer.NewGobTableWriter(map[string]interface{}{
		"outputDir": out.Dir,
	})
	if err != nil {
		return nil, err
	}
	columnar, err := writer.NewParquetTableWriter(map[string]interface{}{
		"outputDir":       out.Dir,
		"compressionType": out.CompressionType,
	})
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		repo:     repo,
		recorder: recorder,
		native:   native,
		columnar: columnar,
	}, nil
}

// Run processes every configured dataset in order. A dataset that fails on
// parse or schema errors produces no output and a FAILED run record, but
// does not stop the remaining datasets; the fatal errors are aggregated
// into the returned error.
func (r *Runner) Run(ctx context.Context) error {
	datasets := r.cfg.Windprep.Batch.Datasets
	if len(datasets) == 0 {
		logger.Warnf("No datasets configured; nothing to do.")
		return nil
	}

	var runErr *multierror.Error
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			runErr = multierror.Append(runErr, err)
			break
		}
		if err := r.runDataset(ctx, ds); err != nil {
			logger.Errorf("Dataset '%s' failed: %v", ds.Name, err)
			runErr = multierror.Append(runErr, err)
		}
	}
	return runErr.ErrorOrNil()
}

// runDataset executes the pipeline for a single dataset.
func (r *Runner) runDataset(ctx context.Context, ds config.DatasetConfig) error {
	batch := r.cfg.Windprep.Batch
	run := model.NewPipelineRun(ds.Name, batch.RollingWindow, batch.KeepIDColumn)
	if err := r.repo.SaveRun(ctx, run); err != nil {
		return err
	}
	r.recorder.RecordRunStart(ctx, run)
	logger.Infof("Run %s started (dataset: %s, input: %s)", run.ID, ds.Name, ds.Input)

	if err := run.TransitionTo(model.RunStatusStarted); err != nil {
		return err
	}
	if err := r.repo.UpdateRun(ctx, run); err != nil {
		return err
	}

	table, fatal := r.transform(ctx, ds, run)
	if fatal != nil {
		r.finishRun(ctx, run, model.RunStatusFailed, fatal.Error())
		return fatal
	}

	r.writeSinks(ctx, ds, run, table)

	r.finishRun(ctx, run, model.RunStatusCompleted, "")
	logger.Infof("Run %s completed (dataset: %s, rows in: %d, rows out: %d)",
		run.ID, ds.Name, run.RowsIn, run.RowsOut)
	return nil
}

// transform reads the input file and reshapes it into a wide table. Any
// error returned is fatal to the dataset.
func (r *Runner) transform(ctx context.Context, ds config.DatasetConfig, run *model.PipelineRun) (*entity.WideTable, error) {
	readStart := time.Now()
	f, err := os.Open(ds.Input)
	if err != nil {
		return nil, exception.NewParseError(moduleName, "failed to open input '%s': %v", ds.Input, err)
	}
	defer f.Close()

	csvReader := reader.NewObservationCSVReader(f)
	rows, err := csvReader.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	run.RowsIn = len(rows)
	r.recorder.RecordRowsRead(ctx, ds.Name, len(rows))
	r.recorder.RecordStageDuration(ctx, ds.Name, stageRead, time.Since(readStart))

	reshapeStart := time.Now()
	opts := reshape.Options{
		RollingWindow: r.cfg.Windprep.Batch.RollingWindow,
		KeepIDColumn:  r.cfg.Windprep.Batch.KeepIDColumn,
		Zones:         r.cfg.Windprep.Batch.Zones,
	}
	table, err := reshape.Process(rows, opts)
	if err != nil {
		return nil, err
	}
	run.RowsOut = table.NumRows()
	r.recorder.RecordStageDuration(ctx, ds.Name, stageReshape, time.Since(reshapeStart))
	return table, nil
}

// writeSinks writes the hierarchical table to the native sink and its
// flattened form to the columnar sink. Write failures are logged and
// attached to the run but never abort it.
func (r *Runner) writeSinks(ctx context.Context, ds config.DatasetConfig, run *model.PipelineRun, table *entity.WideTable) {
	writeStart := time.Now()

	if path, err := r.native.Write(ctx, ds.Name, table); err != nil {
		r.recordWriteFailure(ctx, ds.Name, sinkNative, run, err)
	} else {
		r.recorder.RecordRowsWritten(ctx, ds.Name, sinkNative, table.NumRows())
		logger.Infof("Wrote native output: %s", path)
	}

	flat := reshape.Flatten(table, map[string]bool{entity.FieldTargetVar: true})
	if path, err := r.columnar.Write(ctx, ds.Name, flat); err != nil {
		r.recordWriteFailure(ctx, ds.Name, sinkColumnar, run, err)
	} else {
		r.recorder.RecordRowsWritten(ctx, ds.Name, sinkColumnar, flat.NumRows())
		logger.Infof("Wrote columnar output: %s", path)
	}

	r.recorder.RecordStageDuration(ctx, ds.Name, stageWrite, time.Since(writeStart))
}

// recordWriteFailure logs a swallowed sink failure and records it on the run.
func (r *Runner) recordWriteFailure(ctx context.Context, dataset, sink string, run *model.PipelineRun, err error) {
	logger.Errorf("Failed to write %s output for dataset '%s': %v", sink, dataset, err)
	run.AddFailure(sink + ": " + exception.ExtractErrorMessage(err))
	r.recorder.RecordWriteFailure(ctx, dataset, sink)
}

// finishRun transitions the run to its terminal status and persists it.
func (r *Runner) finishRun(ctx context.Context, run *model.PipelineRun, status model.RunStatus, failure string) {
	if failure != "" {
		run.AddFailure(failure)
	}
	if err := run.TransitionTo(status); err != nil {
		logger.Errorf("Failed to transition run %s to %s: %v", run.ID, status, err)
	}
	if err := r.repo.UpdateRun(ctx, run); err != nil {
		logger.Errorf("Failed to persist run %s: %v", run.ID, err)
	}
	r.recorder.RecordRunEnd(ctx, run)
}
