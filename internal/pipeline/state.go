package pipeline

import (
	"sync"
	"time"
)

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Step identifiers, in execution order.
const (
	StepExtract    = "extract"
	StepScrub      = "scrub"
	StepDimensions = "dimensions"
	StepFacts      = "facts"
	StepExports    = "exports"
	StepLoad       = "load"
)

// stepOrder fixes the reporting order of steps regardless of map
// iteration.
var stepOrder = []string{StepExtract, StepScrub, StepDimensions, StepFacts, StepExports, StepLoad}

// StepState tracks one step through a run.
type StepState struct {
	ID          string     `json:"id"`
	Status      StepStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at,omitempty"`
	CompletedAt time.Time  `json:"completed_at,omitempty"`
	Detail      string     `json:"detail,omitempty"`
}

// RunState holds the live step states of a run.
type RunState struct {
	mu    sync.RWMutex
	steps map[string]*StepState
}

// NewRunState creates a state with every step pending.
func NewRunState() *RunState {
	steps := make(map[string]*StepState, len(stepOrder))
	for _, id := range stepOrder {
		steps[id] = &StepState{ID: id, Status: StepStatusPending}
	}
	return &RunState{steps: steps}
}

func (s *RunState) transition(id string, status StepStatus, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, ok := s.steps[id]
	if !ok {
		step = &StepState{ID: id}
		s.steps[id] = step
	}

	now := time.Now()
	switch status {
	case StepStatusActive:
		step.StartedAt = now
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped:
		step.CompletedAt = now
	}
	step.Status = status
	if detail != "" {
		step.Detail = detail
	}
}

// Start marks a step active.
func (s *RunState) Start(id string) { s.transition(id, StepStatusActive, "") }

// Complete marks a step completed.
func (s *RunState) Complete(id string) { s.transition(id, StepStatusCompleted, "") }

// Fail marks a step failed with a reason.
func (s *RunState) Fail(id, detail string) { s.transition(id, StepStatusFailed, detail) }

// Skip marks a step skipped with a reason.
func (s *RunState) Skip(id, detail string) { s.transition(id, StepStatusSkipped, detail) }

// Step returns a copy of one step's state.
func (s *RunState) Step(id string) StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if step, ok := s.steps[id]; ok {
		return *step
	}
	return StepState{ID: id, Status: StepStatusPending}
}

// Steps returns the step states in execution order.
func (s *RunState) Steps() []StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StepState, 0, len(stepOrder))
	for _, id := range stepOrder {
		if step, ok := s.steps[id]; ok {
			out = append(out, *step)
		}
	}
	return out
}

// HasFailures reports whether any step failed.
func (s *RunState) HasFailures() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, step := range s.steps {
		if step.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// HasSkips reports whether any step was skipped.
func (s *RunState) HasSkips() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, step := range s.steps {
		if step.Status == StepStatusSkipped {
			return true
		}
	}
	return false
}
