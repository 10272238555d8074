package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UploadMetrics provides observability for the upload session manager.
//
// This interface is optional - if not provided to the manager, a no-op
// implementation is used with zero overhead.
type UploadMetrics interface {
	// RecordSessionStarted increments the started-session counter.
	RecordSessionStarted()

	// RecordSessionFinished records a session reaching a terminal status
	// ("completed", "failed", "cancelled") and how long it was alive.
	RecordSessionFinished(status string, duration time.Duration)

	// RecordChunkReceived records an accepted chunk and its size.
	RecordChunkReceived(bytes int64)

	// SetActiveSessions updates the current non-terminal session count.
	SetActiveSessions(count int)

	// RecordCommitDuration records how long the assemble-hash-commit path
	// of a completed upload took.
	RecordCommitDuration(duration time.Duration)
}

type uploadMetrics struct {
	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	sessionDuration  *prometheus.HistogramVec
	chunksReceived   prometheus.Counter
	bytesReceived    prometheus.Counter
	activeSessions   prometheus.Gauge
	commitDuration   prometheus.Histogram
}

// NewUploadMetrics creates a new Prometheus-backed UploadMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewUploadMetrics() UploadMetrics {
	if !IsEnabled() {
		return &noopUploadMetrics{}
	}

	reg := GetRegistry()

	return &uploadMetrics{
		sessionsStarted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filedepot_upload_sessions_started_total",
				Help: "Total number of upload sessions started",
			},
		),
		sessionsFinished: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedepot_upload_sessions_finished_total",
				Help: "Total number of upload sessions reaching a terminal status",
			},
			[]string{"status"},
		),
		sessionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "filedepot_upload_session_duration_seconds",
				Help: "Lifetime of upload sessions in seconds",
				Buckets: []float64{
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					15.0,  // 15s
					60.0,  // 1m
					300.0, // 5m
					900.0, // 15m
				},
			},
			[]string{"status"},
		),
		chunksReceived: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filedepot_upload_chunks_received_total",
				Help: "Total number of chunks accepted",
			},
		),
		bytesReceived: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filedepot_upload_bytes_received_total",
				Help: "Total bytes accepted across all sessions",
			},
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "filedepot_upload_active_sessions",
				Help: "Current number of non-terminal upload sessions",
			},
		),
		commitDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "filedepot_upload_commit_duration_seconds",
				Help: "Duration of the assemble-hash-commit path in seconds",
				Buckets: []float64{
					0.01, // 10ms
					0.05, // 50ms
					0.1,  // 100ms
					0.5,  // 500ms
					1.0,  // 1s
					5.0,  // 5s
					15.0, // 15s
					60.0, // 1m
				},
			},
		),
	}
}

func (m *uploadMetrics) RecordSessionStarted() {
	m.sessionsStarted.Inc()
}

func (m *uploadMetrics) RecordSessionFinished(status string, duration time.Duration) {
	m.sessionsFinished.WithLabelValues(status).Inc()
	m.sessionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *uploadMetrics) RecordChunkReceived(bytes int64) {
	m.chunksReceived.Inc()
	m.bytesReceived.Add(float64(bytes))
}

func (m *uploadMetrics) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

func (m *uploadMetrics) RecordCommitDuration(duration time.Duration) {
	m.commitDuration.Observe(duration.Seconds())
}

// NewNoopUploadMetrics returns an UploadMetrics that discards all
// measurements.
func NewNoopUploadMetrics() UploadMetrics {
	return &noopUploadMetrics{}
}

// noopUploadMetrics discards all measurements.
type noopUploadMetrics struct{}

func (noopUploadMetrics) RecordSessionStarted()                       {}
func (noopUploadMetrics) RecordSessionFinished(string, time.Duration) {}
func (noopUploadMetrics) RecordChunkReceived(int64)                   {}
func (noopUploadMetrics) SetActiveSessions(int)                       {}
func (noopUploadMetrics) RecordCommitDuration(time.Duration)          {}
