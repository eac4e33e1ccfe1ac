// Package workflow runs multi-step backend pipelines as sagas: ordered
// steps with compensating actions, so a failure partway through does not
// leave earlier steps' effects committed and unrecoverable.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StepStatus tracks one step through its lifecycle.
type StepStatus string

const (
	StepStatusPending     StepStatus = "pending"
	StepStatusRunning     StepStatus = "running"
	StepStatusDone        StepStatus = "done"
	StepStatusFailed      StepStatus = "failed"
	StepStatusCompensated StepStatus = "compensated"
)

// Step is one unit of a saga. Compensate may be nil for steps with no
// effect worth undoing.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepSnapshot reports a step's state after execution.
type StepSnapshot struct {
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"startedAt,omitempty"`
	EndedAt   time.Time  `json:"endedAt,omitempty"`
}

// Saga executes steps in order and compensates completed ones in reverse
// when a later step fails.
type Saga struct {
	mu     sync.Mutex
	name   string
	steps  []Step
	states []StepSnapshot
	logger *zap.Logger
}

// New returns a saga over the given steps.
func New(name string, logger *zap.Logger, steps ...Step) *Saga {
	states := make([]StepSnapshot, len(steps))
	for i, step := range steps {
		states[i] = StepSnapshot{Name: step.Name, Status: StepStatusPending}
	}
	return &Saga{name: name, steps: steps, states: states, logger: logger}
}

// Snapshot returns the per-step state.
func (s *Saga) Snapshot() []StepSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StepSnapshot, len(s.states))
	copy(out, s.states)
	return out
}

func (s *Saga) setState(i int, status StepStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[i].Status = status
	s.states[i].Error = errMsg
	now := time.Now().UTC()
	if status == StepStatusRunning {
		s.states[i].StartedAt = now
	} else {
		s.states[i].EndedAt = now
	}
}

// CompensationError reports a compensation that itself failed; the operator
// has to reconcile manually.
type CompensationError struct {
	Saga  string
	Step  string
	Cause error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("workflow %s: compensate %s: %v", e.Saga, e.Step, e.Cause)
}

func (e *CompensationError) Unwrap() error { return e.Cause }

// Execute runs all steps. On a step failure the completed steps are
// compensated in reverse order and the step's error is returned; failed
// compensations are logged and reported via the returned error's chain.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		s.setState(i, StepStatusRunning, "")
		s.logger.Info("workflow step running",
			zap.String("workflow", s.name),
			zap.String("step", step.Name))

		if err := step.Run(ctx); err != nil {
			s.setState(i, StepStatusFailed, err.Error())
			s.logger.Warn("workflow step failed",
				zap.String("workflow", s.name),
				zap.String("step", step.Name),
				zap.Error(err))

			if compErr := s.compensate(ctx, i-1); compErr != nil {
				return errors.Join(fmt.Errorf("%s failed: %w", step.Name, err), compErr)
			}
			return fmt.Errorf("%s failed: %w", step.Name, err)
		}
		s.setState(i, StepStatusDone, "")
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, from int) error {
	var firstErr error
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("workflow compensation failed",
				zap.String("workflow", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
			if firstErr == nil {
				firstErr = &CompensationError{Saga: s.name, Step: step.Name, Cause: err}
			}
			continue
		}
		s.setState(i, StepStatusCompensated, "")
		s.logger.Info("workflow step compensated",
			zap.String("workflow", s.name),
			zap.String("step", step.Name))
	}
	return firstErr
}
