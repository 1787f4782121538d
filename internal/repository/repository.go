// Package repository defines persistence for pipeline run metadata.
package repository

import (
	"context"
	"errors"

	"github.com/gefpower/windprep/internal/core/model"
)

// ErrRunNotFound is returned when a PipelineRun with the requested ID does
// not exist.
var ErrRunNotFound = errors.New("pipeline run not found")

// RunRepository persists PipelineRun records.
type RunRepository interface {
	// SaveRun persists a new run. It fails if a run with the same ID exists.
	SaveRun(ctx context.Context, run *model.PipelineRun) error
	// UpdateRun updates an existing run. It fails if the run is not found.
	UpdateRun(ctx context.Context, run *model.PipelineRun) error
	// FindRunByID retrieves a run by its ID, or ErrRunNotFound.
	FindRunByID(ctx context.Context, id string) (*model.PipelineRun, error)
	// FindRunsByDataset retrieves all runs for a dataset, newest first.
	FindRunsByDataset(ctx context.Context, dataset string) ([]*model.PipelineRun, error)
	// Close releases any resources held by the repository.
	Close() error
}
