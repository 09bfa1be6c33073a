// Package httpadapter exposes the ingestion API: availability checks,
// multipart submissions, record reads and deletes.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/config"
	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
	"github.com/vecemhq/dataset-ingest/internal/observability/metrics"
)

// maxSubmissionMemory bounds the in-memory part of multipart parsing;
// larger file parts spill to temp files.
const maxSubmissionMemory = 32 << 20

type Router struct {
	cfg          config.Config
	registrar    ports.DatasetRegistrar
	availability ports.NameAvailabilityService
	reader       ports.DatasetReader
	remover      ports.DatasetRemover
	policy       ports.ExtensionPolicy
	metrics      *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	registrar ports.DatasetRegistrar,
	availability ports.NameAvailabilityService,
	reader ports.DatasetReader,
	remover ports.DatasetRemover,
	policy ports.ExtensionPolicy,
) *Router {
	return &Router{
		cfg:          cfg,
		registrar:    registrar,
		availability: availability,
		reader:       reader,
		remover:      remover,
		policy:       policy,
	}
}

// WithMetrics attaches the ingest-specific instruments. Without it the
// router serves fine, just unobserved.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/datasets", rt.submitDataset)
	mux.HandleFunc("/v1/datasets/", rt.datasetByID)
	mux.HandleFunc("/v1/datasets/check-name", rt.checkName)
	mux.HandleFunc("/v1/categories/", rt.categoryExtensions)

	var handler http.Handler = mux
	if rt.cfg.APIMaxConcurrent > 0 {
		wait := time.Duration(rt.cfg.APIBackpressureTimeoutMS) * time.Millisecond
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, wait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) checkName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.availability.Check(r.Context(), req.OwnerID, req.Name)
	if rt.metrics != nil {
		rt.metrics.RecordNameCheck("api", result.Available, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) submitDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(maxSubmissionMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	payload := r.FormValue("submission")
	if payload == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'submission' is required"})
		return
	}
	var req domain.SubmissionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission json"})
		return
	}

	req.Channels = make(map[domain.ChannelKind]domain.FileChannel)
	source := newFormFileSource()
	for _, kind := range []domain.ChannelKind{domain.ChannelRaw, domain.ChannelVectorized} {
		headers := r.MultipartForm.File[string(kind)+"_files"]
		if len(headers) == 0 {
			continue
		}
		handles := make([]domain.FileHandle, 0, len(headers))
		for _, header := range headers {
			handles = append(handles, source.add(kind, header))
		}
		req.Channels[kind] = domain.NewFileChannel(kind, handles)
	}

	start := time.Now()
	rec, err := rt.registrar.Register(r.Context(), req, source)
	if rt.metrics != nil {
		status := "accepted"
		if err != nil {
			status = "rejected"
		}
		var totalBytes int64
		for _, ch := range req.Channels {
			totalBytes += ch.TotalBytes
		}
		rt.metrics.RecordSubmission("api", status, string(req.Type), totalBytes, time.Since(start))
		if err == nil {
			for kind, ch := range req.Channels {
				rt.metrics.RecordStagedFiles("api", string(kind), len(ch.Files))
			}
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, domain.SubmissionResult{
		Success:     true,
		Message:     "dataset accepted",
		GeneratedID: rec.GeneratedID,
	})
}

func (rt *Router) datasetByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/datasets/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dataset id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := rt.reader.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := rt.remover.Remove(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) categoryExtensions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/categories/")
	name, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "extensions" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	category, err := domain.ParseContentCategory(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category":   category,
		"extensions": rt.policy.AllowedExtensions(category),
	})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// formFileSource adapts parsed multipart file headers to the core's
// file source port. Parts are keyed by channel and file name, so a raw
// and a vectorized upload may share a name without colliding.
type formFileSource struct {
	headers map[string]*multipart.FileHeader
}

func newFormFileSource() *formFileSource {
	return &formFileSource{headers: make(map[string]*multipart.FileHeader)}
}

func partKey(kind domain.ChannelKind, name string) string {
	return string(kind) + "/" + name
}

func (s *formFileSource) add(kind domain.ChannelKind, header *multipart.FileHeader) domain.FileHandle {
	handle := domain.NewFileHandle(header.Filename, header.Header.Get("Content-Type"), header.Size)
	s.headers[partKey(kind, handle.Name)] = header
	return handle
}

func (s *formFileSource) Open(kind domain.ChannelKind, handle domain.FileHandle) (io.ReadCloser, error) {
	header, ok := s.headers[partKey(kind, handle.Name)]
	if !ok {
		return nil, fmt.Errorf("no uploaded %s part for file %q", kind, handle.Name)
	}
	return header.Open()
}
