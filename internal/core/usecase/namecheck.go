package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

const (
	DefaultQuietWindow      = 500 * time.Millisecond
	DefaultNameCheckTimeout = 10 * time.Second
)

// NameChecker debounces availability checks while the user types and
// discards stale responses by issue sequence, so a slow "unavailable"
// answer can never overwrite a fresher "available" one.
type NameChecker struct {
	client  ports.NameCheckClient
	ownerID string
	quiet   time.Duration
	timeout time.Duration

	// onUpdate fires after every state change, outside the lock.
	onUpdate func(domain.NameCheckStatus, domain.NameCheckResult)

	mu        sync.Mutex
	timer     *time.Timer
	seq       uint64
	candidate string
	status    domain.NameCheckStatus
	result    domain.NameCheckResult
}

type NameCheckerOption func(*NameChecker)

func WithQuietWindow(d time.Duration) NameCheckerOption {
	return func(n *NameChecker) {
		if d > 0 {
			n.quiet = d
		}
	}
}

func WithNameCheckTimeout(d time.Duration) NameCheckerOption {
	return func(n *NameChecker) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func WithUpdateHook(hook func(domain.NameCheckStatus, domain.NameCheckResult)) NameCheckerOption {
	return func(n *NameChecker) {
		n.onUpdate = hook
	}
}

func NewNameChecker(client ports.NameCheckClient, ownerID string, opts ...NameCheckerOption) *NameChecker {
	n := &NameChecker{
		client:  client,
		ownerID: ownerID,
		quiet:   DefaultQuietWindow,
		timeout: DefaultNameCheckTimeout,
		status:  domain.NameCheckNone,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Edit registers one keystroke's worth of input. The remote check is
// issued only after the quiet window elapses without another edit; every
// edit invalidates whatever check may still be in flight.
func (n *NameChecker) Edit(name string) {
	candidate := domain.NormalizeName(name)

	n.mu.Lock()
	n.seq++
	n.candidate = candidate
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}

	if candidate == "" {
		// An empty name is "not yet checked", never available or taken.
		n.status = domain.NameCheckNone
		n.result = domain.NameCheckResult{}
		hook := n.onUpdate
		status, result := n.status, n.result
		n.mu.Unlock()
		if hook != nil {
			hook(status, result)
		}
		return
	}

	n.status = domain.NameCheckPending
	// The timer callback carries the sequence it was armed with: if a
	// later edit bumps the sequence after this timer has already fired,
	// the callback yields instead of issuing an early check for the new
	// candidate before its own quiet window elapses.
	armed := n.seq
	n.timer = time.AfterFunc(n.quiet, func() { n.issueCheck(armed) })
	hook := n.onUpdate
	n.mu.Unlock()
	if hook != nil {
		hook(domain.NameCheckPending, domain.NameCheckResult{})
	}
}

// Recheck re-issues a check for the current candidate immediately,
// bypassing the debounce window. Used after a transport failure.
func (n *NameChecker) Recheck() {
	n.mu.Lock()
	if n.candidate == "" {
		n.mu.Unlock()
		return
	}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
	armed := n.seq
	n.status = domain.NameCheckPending
	n.mu.Unlock()
	n.issueCheck(armed)
}

func (n *NameChecker) issueCheck(issued uint64) {
	n.mu.Lock()
	if issued != n.seq {
		// Superseded before the call was made; the newer window owns
		// the next wire call.
		n.mu.Unlock()
		return
	}
	candidate := n.candidate
	n.mu.Unlock()

	if candidate == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	result, err := n.client.CheckNameAvailability(ctx, n.ownerID, candidate)

	n.mu.Lock()
	if issued != n.seq {
		// A newer edit or check superseded this response; last-issued-wins.
		n.mu.Unlock()
		return
	}
	if err != nil {
		n.status = domain.NameCheckError
		n.result = domain.NameCheckResult{
			QueriedName: candidate,
			Message:     "could not verify name availability",
		}
	} else {
		n.status = domain.NameCheckDone
		result.QueriedName = candidate
		n.result = result
	}
	hook := n.onUpdate
	status, res := n.status, n.result
	n.mu.Unlock()

	if hook != nil {
		hook(status, res)
	}
}

// Snapshot returns the current authoritative check state.
func (n *NameChecker) Snapshot() (domain.NameCheckStatus, domain.NameCheckResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status, n.result
}

// Available reports whether the latest completed check cleared the
// current candidate. Pending, errored, and unchecked states all block.
func (n *NameChecker) Available() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status == domain.NameCheckDone && n.result.Available
}

// Candidate returns the normalized name under check.
func (n *NameChecker) Candidate() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.candidate
}

// Stop cancels any pending debounce timer and invalidates in-flight
// checks. Called on session teardown.
func (n *NameChecker) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
