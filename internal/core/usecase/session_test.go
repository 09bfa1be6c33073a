package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

type submitterFake struct {
	mu      sync.Mutex
	calls   int
	result  domain.SubmissionResult
	err     error
	started chan struct{}
	gate    chan struct{}
}

func newSubmitterFake() *submitterFake {
	return &submitterFake{
		result:  domain.SubmissionResult{Success: true, Message: "dataset accepted", GeneratedID: "birds_1"},
		started: make(chan struct{}, 4),
	}
}

func (f *submitterFake) SubmitIngestion(_ context.Context, _ domain.SubmissionRequest) (domain.SubmissionResult, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	result := f.result
	err := f.err
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

func (f *submitterFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testSessionConfig() SessionConfig {
	return SessionConfig{
		OwnerID:          "u-1",
		Type:             domain.TypeRaw,
		Category:         domain.CategoryImage,
		QuietWindow:      5 * time.Millisecond,
		SuccessDisplay:   time.Hour,
		ErrorDisplay:     time.Hour,
		SimulatedCadence: 10 * time.Millisecond,
	}
}

func waitForState(t *testing.T, s *IngestionSession, want domain.IngestionState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still %s", want, s.State())
}

func imageFiles() []domain.FileHandle {
	return []domain.FileHandle{
		domain.NewFileHandle("a.jpg", "image/jpeg", 100),
		domain.NewFileHandle("b.png", "image/png", 200),
	}
}

// newReadySession drives a fresh session to ReadyToSubmit.
func newReadySession(t *testing.T, cfg SessionConfig, submitter *submitterFake, opts ...SessionOption) *IngestionSession {
	t.Helper()
	s := NewIngestionSession(cfg, newImagePolicy(), newNameClientFake(), submitter, opts...)
	t.Cleanup(s.Close)

	if err := s.BeginSelection(domain.ChannelRaw); err != nil {
		t.Fatalf("BeginSelection() error = %v", err)
	}
	if err := s.OfferSelection(imageFiles()); err != nil {
		t.Fatalf("OfferSelection() error = %v", err)
	}
	if got := s.State(); got != domain.StatePendingConfirmation {
		t.Fatalf("expected pending confirmation, got %s", got)
	}
	if err := s.ConfirmSelection(); err != nil {
		t.Fatalf("ConfirmSelection() error = %v", err)
	}

	s.EditName("Bird Photos")
	s.UpdateDetails("photos of birds", "health", nil)
	waitForState(t, s, domain.StateReadyToSubmit)
	return s
}

func TestSessionHappyPath(t *testing.T) {
	cfg := testSessionConfig()
	cfg.SuccessDisplay = 10 * time.Millisecond
	submitter := newSubmitterFake()
	tornDown := make(chan struct{})
	s := newReadySession(t, cfg, submitter, WithTeardownHook(func() { close(tornDown) }))

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := s.State(); got != domain.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", got)
	}
	if got := s.Progress(); got != 100 {
		t.Fatalf("expected progress pinned at 100, got %d", got)
	}
	if result := s.Result(); !result.Success || result.GeneratedID != "birds_1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := s.ChannelBytes(domain.ChannelRaw); got != 300 {
		t.Fatalf("expected 300 raw bytes recorded, got %d", got)
	}

	select {
	case <-tornDown:
	case <-time.After(2 * time.Second):
		t.Fatal("teardown hook never fired after success display")
	}
}

func TestSessionRejectedSelectionReturnsToIdle(t *testing.T) {
	s := NewIngestionSession(testSessionConfig(), newImagePolicy(), newNameClientFake(), newSubmitterFake())
	t.Cleanup(s.Close)

	if err := s.BeginSelection(domain.ChannelRaw); err != nil {
		t.Fatalf("BeginSelection() error = %v", err)
	}
	err := s.OfferSelection([]domain.FileHandle{
		domain.NewFileHandle("a.jpg", "image/jpeg", 10),
		domain.NewFileHandle("track.mp3", "audio/mpeg", 10),
	})
	if !domain.IsKind(err, domain.ErrSelection) {
		t.Fatalf("expected selection error, got %v", err)
	}
	if got := s.State(); got != domain.StateIdle {
		t.Fatalf("expected idle after rejection, got %s", got)
	}
	if s.LastError() == "" {
		t.Fatal("expected surfaced rejection reason")
	}
	if got := s.ChannelBytes(domain.ChannelRaw); got != 0 {
		t.Fatalf("rejected selection must not be committed, got %d bytes", got)
	}
}

func TestSessionDoubleSubmitSingleWireCall(t *testing.T) {
	submitter := newSubmitterFake()
	submitter.gate = make(chan struct{})
	s := newReadySession(t, testSessionConfig(), submitter)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Submit(context.Background())
	}()
	<-submitter.started

	// Second click while the first submit is in flight.
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("in-flight duplicate submit must be a silent no-op, got %v", err)
	}

	close(submitter.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if got := submitter.callCount(); got != 1 {
		t.Fatalf("expected exactly 1 wire call, got %d", got)
	}
}

func TestSessionSubmitFailureRecoversForRetry(t *testing.T) {
	submitter := newSubmitterFake()
	submitter.err = errors.New("backend submit status: 500")
	s := newReadySession(t, testSessionConfig(), submitter)

	err := s.Submit(context.Background())
	if !domain.IsKind(err, domain.ErrSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
	if got := s.State(); got != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", got)
	}
	if s.LastError() == "" {
		t.Fatal("expected failure message retained")
	}

	s.DismissError()
	waitForState(t, s, domain.StateReadyToSubmit)

	// Selected files survive the failure; only the submit is retried.
	submitter.mu.Lock()
	submitter.err = nil
	submitter.mu.Unlock()
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if got := s.State(); got != domain.StateSucceeded {
		t.Fatalf("expected succeeded after retry, got %s", got)
	}
	if got := submitter.callCount(); got != 2 {
		t.Fatalf("expected 2 wire calls across retry, got %d", got)
	}
}

func TestSessionFailureAutoDismissesAfterErrorDisplay(t *testing.T) {
	cfg := testSessionConfig()
	cfg.ErrorDisplay = 15 * time.Millisecond
	submitter := newSubmitterFake()
	submitter.err = errors.New("backend down")
	s := newReadySession(t, cfg, submitter)

	if err := s.Submit(context.Background()); !domain.IsKind(err, domain.ErrSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
	waitForState(t, s, domain.StateReadyToSubmit)
}

func TestSessionBackendRejectionIsSubmissionError(t *testing.T) {
	submitter := newSubmitterFake()
	submitter.result = domain.SubmissionResult{Success: false, Message: "name already exists for this user"}
	s := newReadySession(t, testSessionConfig(), submitter)

	err := s.Submit(context.Background())
	if !domain.IsKind(err, domain.ErrSubmission) {
		t.Fatalf("expected submission error for rejected result, got %v", err)
	}
	if got := s.State(); got != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", got)
	}
}

func TestSessionEditNameInvalidatesReadiness(t *testing.T) {
	s := newReadySession(t, testSessionConfig(), newSubmitterFake())

	s.EditName("Different Name")
	if got := s.State(); got == domain.StateReadyToSubmit {
		t.Fatal("edited name must leave ReadyToSubmit until rechecked")
	}
	waitForState(t, s, domain.StateReadyToSubmit)
}

func TestSessionBlocksActionsWhileSubmitting(t *testing.T) {
	submitter := newSubmitterFake()
	submitter.gate = make(chan struct{})
	s := newReadySession(t, testSessionConfig(), submitter)

	done := make(chan error, 1)
	go func() {
		done <- s.Submit(context.Background())
	}()
	<-submitter.started

	if err := s.BeginSelection(domain.ChannelRaw); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input while submitting, got %v", err)
	}

	close(submitter.gate)
	if err := <-done; err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestSessionRejectsChannelForeignToType(t *testing.T) {
	s := NewIngestionSession(testSessionConfig(), newImagePolicy(), newNameClientFake(), newSubmitterFake())
	t.Cleanup(s.Close)

	err := s.BeginSelection(domain.ChannelVectorized)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("raw-only session must reject the vectorized channel, got %v", err)
	}
}

func TestSessionSupersedesPendingSelection(t *testing.T) {
	s := NewIngestionSession(testSessionConfig(), newImagePolicy(), newNameClientFake(), newSubmitterFake())
	t.Cleanup(s.Close)

	if err := s.BeginSelection(domain.ChannelRaw); err != nil {
		t.Fatalf("BeginSelection() error = %v", err)
	}
	if err := s.OfferSelection(imageFiles()); err != nil {
		t.Fatalf("OfferSelection() error = %v", err)
	}

	// Reopening the picker discards the unconfirmed selection.
	if err := s.BeginSelection(domain.ChannelRaw); err != nil {
		t.Fatalf("BeginSelection() error = %v", err)
	}
	if err := s.ConfirmSelection(); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("superseded selection must not be confirmable, got %v", err)
	}
}

func TestSessionSubmitIllegalOutsideReadyState(t *testing.T) {
	s := NewIngestionSession(testSessionConfig(), newImagePolicy(), newNameClientFake(), newSubmitterFake())
	t.Cleanup(s.Close)

	if err := s.Submit(context.Background()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input from idle, got %v", err)
	}
}
