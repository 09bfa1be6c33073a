package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

const (
	DefaultSubmitTimeout    = 60 * time.Second
	DefaultSuccessDisplay   = 2 * time.Second
	DefaultErrorDisplay     = 5 * time.Second
	DefaultSimulatedCadence = 300 * time.Millisecond
)

// SessionConfig fixes the per-form parameters of one ingestion session.
type SessionConfig struct {
	OwnerID  string
	Type     domain.IngestionType
	Category domain.ContentCategory

	QuietWindow      time.Duration
	NameCheckTimeout time.Duration
	SubmitTimeout    time.Duration
	// SuccessDisplay delays teardown after success so the user sees the
	// confirmation; ErrorDisplay bounds how long a submit failure stays
	// on screen before auto-dismissing back to ReadyToSubmit.
	SuccessDisplay   time.Duration
	ErrorDisplay     time.Duration
	SimulatedCadence time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	out := c
	if out.SubmitTimeout <= 0 {
		out.SubmitTimeout = DefaultSubmitTimeout
	}
	if out.SuccessDisplay <= 0 {
		out.SuccessDisplay = DefaultSuccessDisplay
	}
	if out.ErrorDisplay <= 0 {
		out.ErrorDisplay = DefaultErrorDisplay
	}
	if out.SimulatedCadence <= 0 {
		out.SimulatedCadence = DefaultSimulatedCadence
	}
	return out
}

// IngestionSession is the aggregate root of one ingestion form: it owns
// the selection, the name check, the progress estimate, and the state
// machine that decides which actions are currently legal. The state
// guards play the role a mutex would play in a multi-threaded design;
// the mutex here only serializes UI events with async completions.
type IngestionSession struct {
	cfg        SessionConfig
	classifier *SelectionClassifier
	checker    *NameChecker
	progress   *ProgressEstimator
	submitter  ports.SubmissionClient
	logger     *slog.Logger
	now        func() time.Time
	onTeardown func()

	mu           sync.Mutex
	state        domain.IngestionState
	metadata     domain.Metadata
	channels     map[domain.ChannelKind]domain.FileChannel
	pendingKind  domain.ChannelKind
	pendingFiles []domain.FileHandle
	lastError    string
	result       domain.SubmissionResult
}

type SessionOption func(*IngestionSession)

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *IngestionSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *IngestionSession) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTeardownHook registers the collaborator notified when a succeeded
// session is torn down (the UI redirect, in the original flow).
func WithTeardownHook(hook func()) SessionOption {
	return func(s *IngestionSession) {
		s.onTeardown = hook
	}
}

// WithProgressStrategy selects real transport progress or a simulated
// ramp; defaults to the ramp, which is what a transport without
// incremental reporting gets.
func WithProgressStrategy(strategy ProgressStrategy) SessionOption {
	return func(s *IngestionSession) {
		s.progress = NewProgressEstimator(strategy)
	}
}

func NewIngestionSession(
	cfg SessionConfig,
	policy ports.ExtensionPolicy,
	nameClient ports.NameCheckClient,
	submitter ports.SubmissionClient,
	opts ...SessionOption,
) *IngestionSession {
	cfg = cfg.withDefaults()
	s := &IngestionSession{
		cfg:        cfg,
		classifier: NewSelectionClassifier(policy),
		progress:   NewProgressEstimator(SimulatedRamp{}),
		submitter:  submitter,
		logger:     slog.Default(),
		now:        time.Now,
		state:      domain.StateIdle,
		channels:   make(map[domain.ChannelKind]domain.FileChannel),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.checker = NewNameChecker(
		nameClient,
		cfg.OwnerID,
		WithQuietWindow(cfg.QuietWindow),
		WithNameCheckTimeout(cfg.NameCheckTimeout),
		WithUpdateHook(func(domain.NameCheckStatus, domain.NameCheckResult) {
			s.mu.Lock()
			s.revalidateLocked()
			s.mu.Unlock()
		}),
	)
	return s
}

// BeginSelection opens the picker for one channel. A selection already
// waiting for confirmation is silently superseded.
func (s *IngestionSession) BeginSelection(kind domain.ChannelKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateSubmitting, domain.StateSucceeded:
		return domain.WrapError(domain.ErrInvalidInput, "begin selection", fmt.Errorf("illegal in state %s", s.state))
	}
	if !channelAllowed(s.cfg.Type, kind) {
		return domain.WrapError(domain.ErrInvalidInput, "begin selection", fmt.Errorf("type %s carries no %s channel", s.cfg.Type, kind))
	}

	s.pendingKind = kind
	s.pendingFiles = nil
	s.lastError = ""
	s.state = domain.StateSelecting
	return nil
}

// OfferSelection hands the picked files to the classifier. Acceptance
// parks them for explicit confirmation; rejection discards the whole
// selection and returns the session to Idle with the error surfaced.
func (s *IngestionSession) OfferSelection(files []domain.FileHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateSelecting {
		return domain.WrapError(domain.ErrInvalidInput, "offer selection", fmt.Errorf("illegal in state %s", s.state))
	}

	review := s.classifier.Review(s.pendingKind, s.cfg.Category, files)
	if !review.Accepted {
		s.pendingFiles = nil
		s.state = domain.StateIdle
		s.lastError = review.Reason
		s.logger.Warn("selection_rejected",
			"channel", string(s.pendingKind),
			"reason", review.Reason,
			"offending_files", len(review.Offending),
		)
		return domain.WrapError(domain.ErrSelection, "offer selection", errors.New(review.Reason))
	}

	s.pendingFiles = files
	s.state = domain.StatePendingConfirmation
	return nil
}

// ConfirmSelection commits the pending files to their channel. Files are
// never auto-committed: the user acknowledges the file count first.
func (s *IngestionSession) ConfirmSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePendingConfirmation {
		return domain.WrapError(domain.ErrInvalidInput, "confirm selection", fmt.Errorf("illegal in state %s", s.state))
	}

	channel := domain.NewFileChannel(s.pendingKind, s.pendingFiles)
	s.channels[s.pendingKind] = channel
	s.progress.SetChannel(s.pendingKind, s.pendingFiles)
	s.pendingFiles = nil

	s.logger.Info("selection_confirmed",
		"channel", string(channel.Kind),
		"files", len(channel.Files),
		"total_bytes", channel.TotalBytes,
	)

	s.state = domain.StateValidating
	s.revalidateLocked()
	return nil
}

// EditName records a keystroke in the name field and schedules a
// debounced availability check.
func (s *IngestionSession) EditName(name string) {
	s.mu.Lock()
	s.metadata.Name = name
	if s.state == domain.StateReadyToSubmit {
		s.state = domain.StateValidating
	}
	s.mu.Unlock()
	s.checker.Edit(name)
}

// UpdateDetails sets the non-name metadata fields.
func (s *IngestionSession) UpdateDetails(description, datasetDomain string, settings *domain.VectorSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata.Description = description
	s.metadata.Domain = datasetDomain
	s.metadata.VectorSettings = settings
	s.revalidateLocked()
}

// RecheckName re-issues the availability check immediately, e.g. after a
// transport failure.
func (s *IngestionSession) RecheckName() {
	s.checker.Recheck()
}

// Submit delivers the composed request. The transition is guarded: a
// second submit while one is in flight is a no-op, so a double-click
// produces exactly one network call.
func (s *IngestionSession) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.StateSubmitting:
		s.mu.Unlock()
		return nil
	case domain.StateReadyToSubmit:
	default:
		s.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, "submit", fmt.Errorf("illegal in state %s", s.state))
	}

	req, err := ComposeSubmission(ComposeInput{
		OwnerID:     s.cfg.OwnerID,
		Metadata:    s.metadata,
		Type:        s.cfg.Type,
		Category:    s.cfg.Category,
		Channels:    s.channels,
		SubmittedAt: s.now(),
	})
	if err != nil {
		// ReadyToSubmit guaranteed the inputs; a failure here is a
		// state-machine bug, not a user error.
		s.mu.Unlock()
		return err
	}

	s.state = domain.StateSubmitting
	s.lastError = ""
	s.progress.Reset()
	s.mu.Unlock()

	stopRamp := s.startSimulatedRamp()
	defer stopRamp()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()

	result, err := s.submitter.SubmitIngestion(callCtx, req)
	if err == nil && !result.Success {
		err = errors.New(result.Message)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = domain.StateFailed
		s.lastError = err.Error()
		s.logger.Warn("submission_failed", "generated_id", req.GeneratedID, "error", err)
		time.AfterFunc(s.cfg.ErrorDisplay, s.DismissError)
		return domain.WrapError(domain.ErrSubmission, "submit", err)
	}

	s.progress.Complete()
	s.result = result
	s.state = domain.StateSucceeded
	s.logger.Info("submission_succeeded", "generated_id", req.GeneratedID, "backend_id", result.GeneratedID)
	time.AfterFunc(s.cfg.SuccessDisplay, s.teardown)
	return nil
}

// DismissError acknowledges a failed submission and re-arms the form for
// retry without re-selecting files.
func (s *IngestionSession) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateFailed {
		return
	}
	s.state = domain.StateReadyToSubmit
	s.revalidateLocked()
}

// Close discards the session on navigation away: pending timers stop and
// in-flight name checks are invalidated.
func (s *IngestionSession) Close() {
	s.checker.Stop()
}

func (s *IngestionSession) teardown() {
	s.mu.Lock()
	if s.state != domain.StateSucceeded {
		s.mu.Unlock()
		return
	}
	hook := s.onTeardown
	s.mu.Unlock()

	s.checker.Stop()
	if hook != nil {
		hook()
	}
}

func (s *IngestionSession) startSimulatedRamp() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.cfg.SimulatedCadence)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.progress.Tick()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// revalidateLocked recomputes the Validating/ReadyToSubmit split. Only
// those two states participate; selection and submission states are
// owned by their own transitions.
func (s *IngestionSession) revalidateLocked() {
	switch s.state {
	case domain.StateValidating, domain.StateReadyToSubmit:
	default:
		return
	}

	if s.readyLocked() {
		s.state = domain.StateReadyToSubmit
		return
	}
	s.state = domain.StateValidating
}

func (s *IngestionSession) readyLocked() bool {
	for _, kind := range s.cfg.Type.RequiredChannels() {
		ch, ok := s.channels[kind]
		if !ok || ch.Empty() {
			return false
		}
	}
	if !s.checker.Available() {
		return false
	}
	return s.metadata.Validate(s.cfg.Type) == nil
}

// State reports the current machine state.
func (s *IngestionSession) State() domain.IngestionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the message tied to the most recent failed step, empty
// when nothing is wrong.
func (s *IngestionSession) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// NameCheck exposes the authoritative availability state for the form.
func (s *IngestionSession) NameCheck() (domain.NameCheckStatus, domain.NameCheckResult) {
	return s.checker.Snapshot()
}

// Progress returns the monotonic progress percentage.
func (s *IngestionSession) Progress() int {
	return s.progress.Percent()
}

// ChannelBytes reports the byte total recorded for one channel.
func (s *IngestionSession) ChannelBytes(kind domain.ChannelKind) int64 {
	return s.progress.ChannelBytes(kind)
}

// Result returns the backend acknowledgment after success.
func (s *IngestionSession) Result() domain.SubmissionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func channelAllowed(typ domain.IngestionType, kind domain.ChannelKind) bool {
	for _, k := range typ.RequiredChannels() {
		if k == kind {
			return true
		}
	}
	return false
}
