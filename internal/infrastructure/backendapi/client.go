// Package backendapi is the HTTP client the ingestion workflow embeds:
// it implements the core's name-check and submission ports against the
// dataset API.
package backendapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	files      ports.FileSource
	listener   ports.TransferListener
	executor   *resilience.Executor
}

type Option func(*Client)

// WithFileSource supplies the bytes behind selected file handles.
// Required for submissions.
func WithFileSource(src ports.FileSource) Option {
	return func(c *Client) {
		c.files = src
	}
}

// WithTransferListener routes real upload byte counts to the progress
// estimator.
func WithTransferListener(listener ports.TransferListener) Option {
	return func(c *Client) {
		c.listener = listener
	}
}

// WithExecutor shields the name-check path behind a circuit breaker so a
// dead backend is not hammered once per debounce window.
func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   resilience.NewExecutor(resilience.NameCheckConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckNameAvailability implements ports.NameCheckClient. Submissions
// are never retried; this endpoint is idempotent but retry cadence
// belongs to the debounce layer, so the executor contributes only its
// breaker here.
func (c *Client) CheckNameAvailability(ctx context.Context, ownerID, name string) (domain.NameCheckResult, error) {
	request := map[string]string{
		"owner_id": ownerID,
		"name":     name,
	}

	var response struct {
		QueriedName string `json:"queried_name"`
		Available   bool   `json:"available"`
		Message     string `json:"message"`
	}

	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/datasets/check-name", request, &response, "check name")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "backend.check_name", call, classifyBackendError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.NameCheckResult{}, domain.WrapError(domain.ErrNameCheckNetwork, "check name", err)
	}

	return domain.NameCheckResult{
		QueriedName: response.QueriedName,
		Available:   response.Available,
		Message:     response.Message,
	}, nil
}

// SubmitIngestion implements ports.SubmissionClient. Exactly one wire
// call per invocation: the endpoint is not idempotent, so deduplication
// stays with the session's submit guard, never with retries here.
func (c *Client) SubmitIngestion(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionResult, error) {
	if c.files == nil {
		return domain.SubmissionResult{}, errors.New("backendapi: file source is not configured")
	}
	result, err := c.postSubmission(ctx, req)
	if err != nil {
		return domain.SubmissionResult{}, domain.WrapError(domain.ErrSubmission, "submit ingestion", err)
	}
	return result, nil
}

func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var httpErr *statusError
	if errors.As(err, &httpErr) && httpErr.status < http.StatusInternalServerError {
		// 4xx is the backend answering; only transport and 5xx failures
		// feed the breaker.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
