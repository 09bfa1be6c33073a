package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

// channelFormField matches the API's multipart contract: one repeated
// field per channel.
func channelFormField(kind domain.ChannelKind) string {
	return string(kind) + "_files"
}

const submissionFormField = "submission"

type statusError struct {
	operation string
	status    int
	message   string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("backend %s status: %d", e.operation, e.status)
	}
	return fmt.Sprintf("backend %s status: %d: %s", e.operation, e.status, e.message)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// postSubmission streams the composed request as multipart: the JSON
// submission first, then every channel file, counted for progress.
func (c *Client) postSubmission(ctx context.Context, submission domain.SubmissionRequest) (domain.SubmissionResult, error) {
	const operation = "submit"

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeSubmissionForm(writer, submission))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/datasets", pr)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("backend %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.SubmissionResult{}, readStatusError(operation, resp)
	}

	var result domain.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return result, nil
}

func (c *Client) writeSubmissionForm(writer *multipart.Writer, submission domain.SubmissionRequest) error {
	meta, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := writer.WriteField(submissionFormField, string(meta)); err != nil {
		return fmt.Errorf("write submission field: %w", err)
	}

	for _, kind := range submission.Type.RequiredChannels() {
		channel := submission.Channels[kind]
		for _, handle := range channel.Files {
			if err := c.writeFilePart(writer, kind, handle); err != nil {
				return err
			}
		}
	}
	return writer.Close()
}

func (c *Client) writeFilePart(writer *multipart.Writer, kind domain.ChannelKind, handle domain.FileHandle) error {
	part, err := writer.CreateFormFile(channelFormField(kind), handle.Name)
	if err != nil {
		return fmt.Errorf("create %s part for %q: %w", kind, handle.Name, err)
	}
	body, err := c.files.Open(kind, handle)
	if err != nil {
		return fmt.Errorf("open %s file %q: %w", kind, handle.Name, err)
	}
	defer body.Close()

	var src io.Reader = body
	if c.listener != nil {
		src = &countingReader{reader: body, listener: c.listener}
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("stream %s file %q: %w", kind, handle.Name, err)
	}
	return nil
}

// countingReader reports transferred bytes to the progress estimator.
type countingReader struct {
	reader   io.Reader
	listener ports.TransferListener
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.listener.BytesTransferred(int64(n))
	}
	return n, err
}

func readStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg != "" {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(msg), &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
	}
	return &statusError{operation: operation, status: resp.StatusCode, message: msg}
}
