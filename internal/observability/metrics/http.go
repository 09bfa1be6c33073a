package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	submissionsTotal    *prometheus.CounterVec
	submissionBytes     *prometheus.HistogramVec
	nameChecksTotal     *prometheus.CounterVec
	stagedFilesTotal    *prometheus.CounterVec
	submissionDurations *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dsi",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	submissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsi",
			Subsystem: "ingest",
			Name:      "submissions_total",
			Help:      "Total dataset submissions by outcome.",
		},
		[]string{"service", "status", "type"},
	)
	submissionBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsi",
			Subsystem: "ingest",
			Name:      "submission_bytes",
			Help:      "Distribution of total bytes per accepted submission.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"service", "type"},
	)
	nameChecksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsi",
			Subsystem: "ingest",
			Name:      "name_checks_total",
			Help:      "Total name availability checks by outcome.",
		},
		[]string{"service", "outcome"},
	)
	stagedFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsi",
			Subsystem: "ingest",
			Name:      "staged_files_total",
			Help:      "Total files staged into object storage.",
		},
		[]string{"service", "channel"},
	)
	submissionDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsi",
			Subsystem: "ingest",
			Name:      "submission_duration_seconds",
			Help:      "End-to-end submission handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		submissionsTotal,
		submissionBytes,
		nameChecksTotal,
		stagedFilesTotal,
		submissionDurations,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		submissionsTotal:    submissionsTotal,
		submissionBytes:     submissionBytes,
		nameChecksTotal:     nameChecksTotal,
		stagedFilesTotal:    stagedFilesTotal,
		submissionDurations: submissionDurations,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/v1/datasets/check-name":
		return path
	case strings.HasPrefix(path, "/v1/datasets/"):
		return "/v1/datasets/{dataset_id}"
	case strings.HasPrefix(path, "/v1/categories/"):
		return "/v1/categories/{category}/extensions"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSubmission(service, status, ingestionType string, totalBytes int64, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	if ingestionType == "" {
		ingestionType = "unknown"
	}
	m.submissionsTotal.WithLabelValues(service, status, ingestionType).Inc()
	m.submissionDurations.WithLabelValues(service, status).Observe(duration.Seconds())
	if status == "accepted" && totalBytes > 0 {
		m.submissionBytes.WithLabelValues(service, ingestionType).Observe(float64(totalBytes))
	}
}

func (m *HTTPServerMetrics) RecordNameCheck(service string, available bool, err error) {
	outcome := "available"
	switch {
	case err != nil:
		outcome = "error"
	case !available:
		outcome = "taken"
	}
	m.nameChecksTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordStagedFiles(service, channel string, count int) {
	if count <= 0 {
		return
	}
	m.stagedFilesTotal.WithLabelValues(service, channel).Add(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
