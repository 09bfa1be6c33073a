package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ingestion workflow. Transport errors are
// normalized into these kinds at the boundary; the state machine never
// inspects raw network errors.
var (
	// ErrSelection covers wrong file types and empty selections. It is
	// recovered locally by returning to Idle, never fatal.
	ErrSelection = errors.New("invalid selection")
	// ErrNameConflict means the name is taken. Blocks submit only.
	ErrNameConflict = errors.New("name unavailable")
	// ErrNameCheckNetwork is a transient name-check transport failure.
	// It must never be displayed as a name conflict.
	ErrNameCheckNetwork = errors.New("name check failed")
	// ErrComposition means a required channel is missing. After
	// ReadyToSubmit was reached it indicates a state-machine bug.
	ErrComposition = errors.New("incomplete submission")
	// ErrSubmission means the backend rejected or the network failed
	// during submit; the session returns to ReadyToSubmit.
	ErrSubmission = errors.New("submission failed")

	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
