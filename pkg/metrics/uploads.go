package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records what the upload pipeline stores, rejects and rolls back.
type UploadMetrics struct {
	stored    *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	rollbacks prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewUploadMetrics registers the upload metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	stored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_files_stored_total",
		Help: "Files persisted by a storage backend.",
	}, []string{"kind", "backend"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_files_rejected_total",
		Help: "Files rejected by upload validation.",
	}, []string{"kind"})
	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_rollbacks_total",
		Help: "Upload requests whose stored files were discarded.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_store_duration_seconds",
		Help:    "Time spent storing a single file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	reg.MustRegister(stored, rejected, rollbacks, duration)
	return &UploadMetrics{
		stored:    stored,
		rejected:  rejected,
		rollbacks: rollbacks,
		duration:  duration,
	}
}

func (m *UploadMetrics) IncStored(kind, backend string) {
	if m == nil || m.stored == nil {
		return
	}
	m.stored.WithLabelValues(normalizeLabel(kind), normalizeLabel(backend)).Inc()
}

func (m *UploadMetrics) IncRejected(kind string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *UploadMetrics) IncRollback() {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.Inc()
}

func (m *UploadMetrics) ObserveStore(backend string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(backend)).Observe(d.Seconds())
}

// VerificationMetrics counts document verification outcomes.
type VerificationMetrics struct {
	outcomes *prometheus.CounterVec
}

func NewVerificationMetrics(reg prometheus.Registerer) *VerificationMetrics {
	if reg == nil {
		return &VerificationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_verifications_total",
		Help: "Document verification attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &VerificationMetrics{outcomes: outcomes}
}

// Observe records approved, rejected, conflict or not_found.
func (m *VerificationMetrics) Observe(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
