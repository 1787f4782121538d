// Package model defines the run metadata recorded for each pipeline
// invocation.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a PipelineRun.
type RunStatus string

const (
	// RunStatusStarting means the run record exists but input has not been
	// read yet.
	RunStatusStarting RunStatus = "STARTING"
	// RunStatusStarted means the transformation is in progress.
	RunStatusStarted RunStatus = "STARTED"
	// RunStatusCompleted means the transformation succeeded. Write failures
	// do not demote a run from COMPLETED; they are recorded as failures on
	// the run instead.
	RunStatusCompleted RunStatus = "COMPLETED"
	// RunStatusFailed means a parse or schema error aborted the dataset
	// with no output.
	RunStatusFailed RunStatus = "FAILED"
)

// IsFinished reports whether the status is terminal.
func (s RunStatus) IsFinished() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// validTransitions lists the allowed status transitions.
var validTransitions = map[RunStatus][]RunStatus{
	RunStatusStarting: {RunStatusStarted, RunStatusFailed},
	RunStatusStarted:  {RunStatusCompleted, RunStatusFailed},
}

// PipelineRun records one preprocessing invocation for one dataset.
type PipelineRun struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Dataset       string    `gorm:"column:dataset"`
	RollingWindow int       `gorm:"column:rolling_window"`
	KeepIDColumn  bool      `gorm:"column:keep_id_column"`
	Status        RunStatus `gorm:"column:status"`
	RowsIn        int       `gorm:"column:rows_in"`
	RowsOut       int       `gorm:"column:rows_out"`
	// Failures holds newline-joined failure messages: the fatal error for a
	// FAILED run, or swallowed write errors for a COMPLETED one.
	Failures    string    `gorm:"column:failures"`
	StartedAt   time.Time `gorm:"column:started_at"`
	CompletedAt time.Time `gorm:"column:completed_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for PipelineRun.
func (PipelineRun) TableName() string {
	return "pipeline_run"
}

// NewPipelineRun creates a run record in STARTING state with a fresh UUID.
func NewPipelineRun(dataset string, rollingWindow int, keepIDColumn bool) *PipelineRun {
	now := time.Now()
	return &PipelineRun{
		ID:            uuid.New().String(),
		Dataset:       dataset,
		RollingWindow: rollingWindow,
		KeepIDColumn:  keepIDColumn,
		Status:        RunStatusStarting,
		StartedAt:     now,
		UpdatedAt:     now,
	}
}

// TransitionTo moves the run to the next status, rejecting transitions not
// listed in validTransitions.
func (r *PipelineRun) TransitionTo(next RunStatus) error {
	for _, allowed := range validTransitions[r.Status] {
		if allowed == next {
			r.Status = next
			r.UpdatedAt = time.Now()
			if next.IsFinished() {
				r.CompletedAt = r.UpdatedAt
			}
			return nil
		}
	}
	return fmt.Errorf("invalid run status transition: %s -> %s", r.Status, next)
}

// AddFailure appends a failure message to the run record.
func (r *PipelineRun) AddFailure(message string) {
	if r.Failures == "" {
		r.Failures = message
		return
	}
	r.Failures = r.Failures + "\n" + message
}

// FailureList returns the recorded failure messages.
func (r *PipelineRun) FailureList() []string {
	if r.Failures == "" {
		return nil
	}
	return strings.Split(r.Failures, "\n")
}

// Duration returns the wall time of a finished run, or the time elapsed so
// far for a running one.
func (r *PipelineRun) Duration() time.Duration {
	if r.Status.IsFinished() && !r.CompletedAt.IsZero() {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
