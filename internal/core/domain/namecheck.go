package domain

type NameCheckStatus string

const (
	// NameCheckNone means no check has been issued yet (including the
	// empty-name case, which never reaches the backend).
	NameCheckNone    NameCheckStatus = "none"
	NameCheckPending NameCheckStatus = "pending"
	NameCheckDone    NameCheckStatus = "done"
	// NameCheckError is a transport failure, deliberately distinct from
	// an unavailable name.
	NameCheckError NameCheckStatus = "error"
)

// NameCheckResult is authoritative only for the most recently issued
// query; stale in-flight results are discarded by the checker.
type NameCheckResult struct {
	QueriedName string `json:"queried_name"`
	Available   bool   `json:"available"`
	Message     string `json:"message"`
}
