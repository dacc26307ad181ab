package pipeline

import (
	"context"
	"errors"
	"fmt"

	"pressroom/internal/core"
	"pressroom/internal/enhance"
	"pressroom/internal/imagery"
)

// Failure categories a build can end in. Stage errors wrap one of
// these so callers can branch on the category without string matching.
var (
	// ErrInputIncomplete means required inputs had no satisfied substitute.
	ErrInputIncomplete = errors.New("input incomplete")
	// ErrStageTimeout means a stage exceeded its time budget.
	ErrStageTimeout = errors.New("stage timed out")
	// ErrGenerationEmpty means the generation backend produced no usable body.
	ErrGenerationEmpty = errors.New("generation produced empty content")
	// ErrCapabilityUnavailable means a stage needed a backend that is not configured.
	ErrCapabilityUnavailable = errors.New("required capability unavailable")
)

// StageError records which stage a build failed in.
type StageError struct {
	Stage core.StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// classify maps backend errors onto the failure categories. Context
// deadline errors become timeouts; unknown errors pass through.
func classify(stage core.StageID, err error) *StageError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %v", ErrStageTimeout, err)
	case errors.Is(err, enhance.ErrEmptyBody):
		err = fmt.Errorf("%w: %v", ErrGenerationEmpty, err)
	case errors.Is(err, imagery.ErrGeneratorUnavailable):
		err = fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}
	return &StageError{Stage: stage, Err: err}
}
