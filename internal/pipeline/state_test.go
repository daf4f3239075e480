package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunState_Lifecycle(t *testing.T) {
	s := NewRunState()

	for _, step := range s.Steps() {
		assert.Equal(t, StepStatusPending, step.Status)
	}

	s.Start(StepExtract)
	assert.Equal(t, StepStatusActive, s.Step(StepExtract).Status)
	assert.False(t, s.Step(StepExtract).StartedAt.IsZero())

	s.Complete(StepExtract)
	assert.Equal(t, StepStatusCompleted, s.Step(StepExtract).Status)
	assert.False(t, s.Step(StepExtract).CompletedAt.IsZero())

	s.Fail(StepLoad, "every table failed")
	assert.True(t, s.HasFailures())
	assert.Equal(t, "every table failed", s.Step(StepLoad).Detail)

	s.Skip(StepFacts, "dimensional model incomplete")
	assert.True(t, s.HasSkips())
}

func TestRunState_StepsInExecutionOrder(t *testing.T) {
	s := NewRunState()
	steps := s.Steps()
	require.Len(t, steps, len(stepOrder))
	for i, id := range stepOrder {
		assert.Equal(t, id, steps[i].ID)
	}
}
