package share

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/metrics"
)

// SweeperConfig holds expiry sweeper settings.
type SweeperConfig struct {
	// Enabled determines if the sweeper runs automatically.
	Enabled bool `mapstructure:"enabled"`

	// Interval between sweeps (default: 10m).
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultSweeperConfig returns the default sweeper configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Enabled:  true,
		Interval: 10 * time.Minute,
	}
}

// SweepStats reports the results of one sweep.
type SweepStats struct {
	// StartTime is when the sweep started.
	StartTime time.Time

	// EndTime is when the sweep finished.
	EndTime time.Time

	// CheckedPermissions is how many permission rows were examined.
	CheckedPermissions int

	// ExpiredPermissions is how many permissions were marked inactive.
	ExpiredPermissions int

	// CheckedLinks is how many download links were examined.
	CheckedLinks int

	// ExpiredLinks is how many links were marked inactive.
	ExpiredLinks int
}

// Duration returns how long the sweep took.
func (s SweepStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable one-line summary.
func (s SweepStats) Summary() string {
	return fmt.Sprintf("swept %d permissions (%d expired), %d links (%d expired) in %v",
		s.CheckedPermissions, s.ExpiredPermissions,
		s.CheckedLinks, s.ExpiredLinks,
		s.Duration().Round(time.Millisecond))
}

// Sweeper periodically marks expired permissions and download links as
// inactive. Expiry is always enforced at read time too, so the sweeper is
// purely an optimization: it keeps listings tidy and shared flags honest,
// and a stale or stopped sweeper never extends access.
type Sweeper struct {
	store   Store
	config  SweeperConfig
	metrics metrics.ShareMetrics

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper creates an expiry sweeper for the given store. A nil
// ShareMetrics disables instrumentation.
func NewSweeper(store Store, config SweeperConfig, m metrics.ShareMetrics) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	if m == nil {
		m = metrics.NewNoopShareMetrics()
	}
	return &Sweeper{
		store:   store,
		config:  config,
		metrics: m,
	}
}

// Start launches the background sweep loop. It is a no-op when the sweeper
// is disabled or already running.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled || s.running {
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	go s.worker()

	logger.Info("share sweeper started (interval: %v)", s.config.Interval)
}

// Stop halts the background loop, waiting for an in-flight sweep to finish
// or the context to be cancelled.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	doneCh := s.doneCh
	s.running = false
	s.mu.Unlock()

	select {
	case <-doneCh:
		logger.Info("share sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow performs a single sweep immediately, regardless of Enabled.
func (s *Sweeper) RunNow(ctx context.Context) (SweepStats, error) {
	return s.sweep(ctx)
}

func (s *Sweeper) worker() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			stats, err := s.sweep(context.Background())
			if err != nil {
				logger.Error("share sweep failed: %v", err)
				continue
			}
			if stats.ExpiredPermissions > 0 || stats.ExpiredLinks > 0 {
				logger.Info("share sweep: %s", stats.Summary())
			} else {
				logger.Debug("share sweep: %s", stats.Summary())
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) (SweepStats, error) {
	stats := SweepStats{StartTime: time.Now()}
	now := stats.StartTime

	perms, err := s.store.ListPermissions(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list permissions: %w", err)
	}
	for _, perm := range perms {
		stats.CheckedPermissions++
		if !perm.Active || !perm.Expired(now) {
			continue
		}
		perm.Active = false
		if err := s.store.PutPermission(ctx, perm); err != nil {
			return stats, fmt.Errorf("failed to deactivate permission %s: %w", perm.ID, err)
		}
		stats.ExpiredPermissions++
	}

	links, err := s.store.ListLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list links: %w", err)
	}
	for _, link := range links {
		stats.CheckedLinks++
		if !link.Active || !link.Expired(now) {
			continue
		}
		link.Active = false
		if err := s.store.PutLink(ctx, link); err != nil {
			return stats, fmt.Errorf("failed to deactivate link %s: %w", link.ID, err)
		}
		stats.ExpiredLinks++
	}

	stats.EndTime = time.Now()
	s.metrics.RecordSweep(stats.ExpiredPermissions, stats.ExpiredLinks)
	return stats, nil
}
