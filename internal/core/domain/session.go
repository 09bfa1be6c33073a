package domain

// IngestionState is the single source of truth for which form actions are
// legal at any moment. Scattered boolean flags are exactly the bug class
// this enum replaces.
type IngestionState string

const (
	StateIdle                IngestionState = "idle"
	StateSelecting           IngestionState = "selecting"
	StatePendingConfirmation IngestionState = "pending_confirmation"
	StateValidating          IngestionState = "validating"
	StateReadyToSubmit       IngestionState = "ready_to_submit"
	StateSubmitting          IngestionState = "submitting"
	StateSucceeded           IngestionState = "succeeded"
	StateFailed              IngestionState = "failed"
)

// Terminal reports whether the session is done for good. Failed is
// recoverable and therefore not terminal.
func (s IngestionState) Terminal() bool {
	return s == StateSucceeded
}
