package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ShareMetrics provides observability for the share and token engine.
//
// This interface is optional - if not provided to the engine, a no-op
// implementation is used with zero overhead.
type ShareMetrics interface {
	// RecordShareCreated records a new grant by share type
	// ("internal", "external", "public", "organization").
	RecordShareCreated(shareType string)

	// RecordShareRevoked increments the revocation counter.
	RecordShareRevoked()

	// RecordAuthorization records an access decision ("allowed", "denied").
	RecordAuthorization(result string)

	// RecordLinkConsumed records a download link consumption attempt by
	// outcome ("ok", "expired", "exhausted", "revoked", "not_found").
	RecordLinkConsumed(outcome string)

	// RecordSweep records the results of one expiry sweep.
	RecordSweep(expiredPermissions, expiredLinks int)
}

type shareMetrics struct {
	sharesCreated  *prometheus.CounterVec
	sharesRevoked  prometheus.Counter
	authorizations *prometheus.CounterVec
	linksConsumed  *prometheus.CounterVec
	sweepExpired   *prometheus.CounterVec
}

// NewShareMetrics creates a new Prometheus-backed ShareMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewShareMetrics() ShareMetrics {
	if !IsEnabled() {
		return &noopShareMetrics{}
	}

	reg := GetRegistry()

	return &shareMetrics{
		sharesCreated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedepot_shares_created_total",
				Help: "Total number of share grants created by type",
			},
			[]string{"type"},
		),
		sharesRevoked: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filedepot_shares_revoked_total",
				Help: "Total number of share grants revoked",
			},
		),
		authorizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedepot_authorizations_total",
				Help: "Total number of authorization decisions by result",
			},
			[]string{"result"},
		),
		linksConsumed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedepot_download_link_consumptions_total",
				Help: "Total number of download link consumption attempts by outcome",
			},
			[]string{"outcome"},
		),
		sweepExpired: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedepot_share_sweep_expired_total",
				Help: "Total number of rows marked inactive by the expiry sweeper",
			},
			[]string{"kind"},
		),
	}
}

func (m *shareMetrics) RecordShareCreated(shareType string) {
	m.sharesCreated.WithLabelValues(shareType).Inc()
}

func (m *shareMetrics) RecordShareRevoked() {
	m.sharesRevoked.Inc()
}

func (m *shareMetrics) RecordAuthorization(result string) {
	m.authorizations.WithLabelValues(result).Inc()
}

func (m *shareMetrics) RecordLinkConsumed(outcome string) {
	m.linksConsumed.WithLabelValues(outcome).Inc()
}

func (m *shareMetrics) RecordSweep(expiredPermissions, expiredLinks int) {
	m.sweepExpired.WithLabelValues("permission").Add(float64(expiredPermissions))
	m.sweepExpired.WithLabelValues("link").Add(float64(expiredLinks))
}

// NewNoopShareMetrics returns a ShareMetrics that discards all
// measurements.
func NewNoopShareMetrics() ShareMetrics {
	return &noopShareMetrics{}
}

// noopShareMetrics discards all measurements.
type noopShareMetrics struct{}

func (noopShareMetrics) RecordShareCreated(string)  {}
func (noopShareMetrics) RecordShareRevoked()        {}
func (noopShareMetrics) RecordAuthorization(string) {}
func (noopShareMetrics) RecordLinkConsumed(string)  {}
func (noopShareMetrics) RecordSweep(int, int)       {}
