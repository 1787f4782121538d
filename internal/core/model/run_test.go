package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gefpower/windprep/internal/core/model"
)

func TestNewPipelineRun(t *testing.T) {
	run := model.NewPipelineRun("Train", 3, false)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "Train", run.Dataset)
	assert.Equal(t, 3, run.RollingWindow)
	assert.Equal(t, model.RunStatusStarting, run.Status)
	assert.False(t, run.StartedAt.IsZero())
	assert.True(t, run.CompletedAt.IsZero())

	other := model.NewPipelineRun("Train", 3, false)
	assert.NotEqual(t, run.ID, other.ID)
}

func TestPipelineRun_ValidTransitions(t *testing.T) {
	run := model.NewPipelineRun("Train", 3, false)

	require.NoError(t, run.TransitionTo(model.RunStatusStarted))
	assert.Equal(t, model.RunStatusStarted, run.Status)
	assert.True(t, run.CompletedAt.IsZero())

	require.NoError(t, run.TransitionTo(model.RunStatusCompleted))
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.False(t, run.CompletedAt.IsZero())
}

func TestPipelineRun_FailureTransitions(t *testing.T) {
	fromStarting := model.NewPipelineRun("Train", 3, false)
	require.NoError(t, fromStarting.TransitionTo(model.RunStatusFailed))

	fromStarted := model.NewPipelineRun("Train", 3, false)
	require.NoError(t, fromStarted.TransitionTo(model.RunStatusStarted))
	require.NoError(t, fromStarted.TransitionTo(model.RunStatusFailed))
}

func TestPipelineRun_InvalidTransitions(t *testing.T) {
	run := model.NewPipelineRun("Train", 3, false)

	// STARTING cannot jump straight to COMPLETED.
	assert.Error(t, run.TransitionTo(model.RunStatusCompleted))

	require.NoError(t, run.TransitionTo(model.RunStatusStarted))
	require.NoError(t, run.TransitionTo(model.RunStatusCompleted))

	// Terminal states accept no further transitions.
	assert.Error(t, run.TransitionTo(model.RunStatusStarted))
	assert.Error(t, run.TransitionTo(model.RunStatusFailed))
}

func TestRunStatus_IsFinished(t *testing.T) {
	assert.False(t, model.RunStatusStarting.IsFinished())
	assert.False(t, model.RunStatusStarted.IsFinished())
	assert.True(t, model.RunStatusCompleted.IsFinished())
	assert.True(t, model.RunStatusFailed.IsFinished())
}

func TestPipelineRun_Failures(t *testing.T) {
	run := model.NewPipelineRun("Train", 3, false)
	assert.Nil(t, run.FailureList())

	run.AddFailure("parquet: disk full")
	run.AddFailure("gob: permission denied")
	assert.Equal(t, []string{"parquet: disk full", "gob: permission denied"}, run.FailureList())
}
