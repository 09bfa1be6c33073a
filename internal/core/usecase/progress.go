package usecase

import (
	"sync"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

// DefaultSimulatedStep is the per-tick ramp increment used when the
// transport reports no incremental bytes.
const DefaultSimulatedStep = 7

// simulatedCeiling keeps the ramp from claiming completion the transport
// has not confirmed.
const simulatedCeiling = 95

// ProgressStrategy computes the next progress percentage. The estimator
// clamps whatever it returns to keep progress monotonic and below 100
// until completion is confirmed.
type ProgressStrategy interface {
	Advance(current int, totalBytes, transferredBytes int64) int
}

// TransferProgress derives progress from real transport byte reports.
type TransferProgress struct{}

func (TransferProgress) Advance(current int, totalBytes, transferredBytes int64) int {
	if totalBytes <= 0 {
		return current
	}
	pct := int(transferredBytes * 100 / totalBytes)
	if pct > simulatedCeiling {
		pct = simulatedCeiling
	}
	return pct
}

// SimulatedRamp advances on a fixed cadence for perceived responsiveness
// when the transport gives no incremental signal.
type SimulatedRamp struct {
	Step int
}

func (r SimulatedRamp) Advance(current int, _, _ int64) int {
	step := r.Step
	if step <= 0 {
		step = DefaultSimulatedStep
	}
	next := current + step
	if next > simulatedCeiling {
		next = simulatedCeiling
	}
	return next
}

// ProgressEstimator tracks per-channel byte totals and produces a
// monotonically increasing percentage in [0,100]. It reaches exactly 100
// only on confirmed completion of the underlying request.
type ProgressEstimator struct {
	strategy ProgressStrategy

	mu          sync.Mutex
	totals      map[domain.ChannelKind]int64
	transferred int64
	percent     int
	completed   bool
}

func NewProgressEstimator(strategy ProgressStrategy) *ProgressEstimator {
	if strategy == nil {
		strategy = SimulatedRamp{}
	}
	return &ProgressEstimator{
		strategy: strategy,
		totals:   make(map[domain.ChannelKind]int64),
	}
}

// SetChannel records the byte total of a channel at selection time. An
// empty channel contributes zero bytes and never blocks the other
// channel's accounting.
func (e *ProgressEstimator) SetChannel(kind domain.ChannelKind, files []domain.FileHandle) {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totals[kind] = total
}

// DropChannel forgets a superseded or cleared selection.
func (e *ProgressEstimator) DropChannel(kind domain.ChannelKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.totals, kind)
}

func (e *ProgressEstimator) ChannelBytes(kind domain.ChannelKind) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals[kind]
}

func (e *ProgressEstimator) TotalBytes() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sum int64
	for _, n := range e.totals {
		sum += n
	}
	return sum
}

// BytesTransferred feeds real transport progress into the estimator.
// Implements ports.TransferListener.
func (e *ProgressEstimator) BytesTransferred(n int64) {
	if n <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transferred += n
	e.advanceLocked()
}

// Tick advances the simulated ramp one cadence step.
func (e *ProgressEstimator) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceLocked()
}

func (e *ProgressEstimator) advanceLocked() {
	if e.completed {
		return
	}
	var total int64
	for _, n := range e.totals {
		total += n
	}
	next := e.strategy.Advance(e.percent, total, e.transferred)
	// Progress never regresses, whatever the strategy claims.
	if next > e.percent {
		e.percent = next
	}
	if e.percent > simulatedCeiling {
		e.percent = simulatedCeiling
	}
}

// Complete pins progress to exactly 100. Only called once the underlying
// request is confirmed done.
func (e *ProgressEstimator) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = true
	e.percent = 100
}

// Reset returns the estimator to zero for a retried submission.
func (e *ProgressEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transferred = 0
	e.percent = 0
	e.completed = false
}

func (e *ProgressEstimator) Percent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.percent
}
