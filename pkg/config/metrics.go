package config

import (
	"github.com/filedepot/filedepot/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Upload is the metrics collector for the upload manager (never nil)
	Upload metrics.UploadMetrics

	// Share is the metrics collector for the share engine (never nil)
	Share metrics.ShareMetrics
}

// InitializeMetrics creates and initializes all metrics components based on
// configuration.
//
// If metrics are enabled:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed collectors for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op collectors (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Server: nil,
			Upload: metrics.NewNoopUploadMetrics(),
			Share:  metrics.NewNoopShareMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server: server,
		Upload: metrics.NewUploadMetrics(),
		Share:  metrics.NewShareMetrics(),
	}
}
