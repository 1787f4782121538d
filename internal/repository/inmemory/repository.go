// Package inmemory provides an in-memory implementation of RunRepository.
// It stores run records in a map, suitable for testing and for invocations
// that do not configure a metadata database.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gefpower/windprep/internal/core/model"
	"github.com/gefpower/windprep/internal/repository"
)

// InMemoryRunRepository is an in-memory implementation of RunRepository.
type InMemoryRunRepository struct {
	runs map[string]*model.PipelineRun
	mu   sync.RWMutex
}

// NewInMemoryRunRepository creates and initializes a new InMemoryRunRepository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs: make(map[string]*model.PipelineRun),
	}
}

// SaveRun persists a new PipelineRun.
// It returns an error if a run with the same ID already exists.
func (r *InMemoryRunRepository) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("pipeline run with ID %s already exists", run.ID)
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

// UpdateRun updates an existing PipelineRun.
// It returns an error if the run with the given ID is not found.
func (r *InMemoryRunRepository) UpdateRun(ctx context.Context, run *model.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return fmt.Errorf("pipeline run with ID %s not found for update", run.ID)
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

// FindRunByID finds a PipelineRun by its ID.
func (r *InMemoryRunRepository) FindRunByID(ctx context.Context, id string) (*model.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return copyRun(run), nil
}

// FindRunsByDataset returns all runs for the dataset, newest first.
func (r *InMemoryRunRepository) FindRunsByDataset(ctx context.Context, dataset string) ([]*model.PipelineRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.PipelineRun
	for _, run := range r.runs {
		if run.Dataset == dataset {
			out = append(out, copyRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// Close releases resources used by the repository.
// The in-memory repository holds no external resources, so this always
// returns nil.
func (r *InMemoryRunRepository) Close() error {
	return nil
}

// copyRun returns a shallow copy so callers cannot mutate stored state.
func copyRun(run *model.PipelineRun) *model.PipelineRun {
	c := *run
	return &c
}
