package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/filedepot/filedepot/internal/logger"
)

// ReaperConfig holds idle-session reaper settings.
type ReaperConfig struct {
	// Enabled determines if the reaper runs automatically.
	Enabled bool `mapstructure:"enabled"`

	// Interval between scans (default: 1m).
	Interval time.Duration `mapstructure:"interval"`

	// IdleTimeout is how long a session may go without chunk activity
	// before server-initiated cancellation (default: 30m).
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// RetainTerminal is how long terminal sessions stay queryable before
	// the reaper drops them from the session map (default: 1h). This is
	// what bounds the manager's memory over time.
	RetainTerminal time.Duration `mapstructure:"retain_terminal"`
}

// DefaultReaperConfig returns the default reaper configuration.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Enabled:        true,
		Interval:       time.Minute,
		IdleTimeout:    30 * time.Minute,
		RetainTerminal: time.Hour,
	}
}

// ReapStats reports the results of one reaper scan.
type ReapStats struct {
	// StartTime is when the scan started.
	StartTime time.Time

	// EndTime is when the scan finished.
	EndTime time.Time

	// CheckedSessions is how many sessions were examined.
	CheckedSessions int

	// ReclaimedSessions is how many idle sessions were cancelled.
	ReclaimedSessions int

	// ArchivedSessions is how many terminal sessions were dropped.
	ArchivedSessions int
}

// Duration returns how long the scan took.
func (s ReapStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable one-line summary.
func (s ReapStats) Summary() string {
	return fmt.Sprintf("checked %d sessions, reclaimed %d idle, archived %d terminal in %v",
		s.CheckedSessions, s.ReclaimedSessions, s.ArchivedSessions,
		s.Duration().Round(time.Millisecond))
}

// Reaper cancels upload sessions with no chunk activity past the idle
// timeout and drops long-terminal sessions from the manager's map. Idle
// cancellation is the same transition as user cancellation with a
// distinct reason recorded, so clients polling the session see why it
// ended.
type Reaper struct {
	manager *Manager
	config  ReaperConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReaper creates an idle-session reaper for the given manager.
func NewReaper(manager *Manager, config ReaperConfig) *Reaper {
	defaults := DefaultReaperConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.RetainTerminal <= 0 {
		config.RetainTerminal = defaults.RetainTerminal
	}
	return &Reaper{
		manager: manager,
		config:  config,
	}
}

// Start launches the background scan loop. It is a no-op when the reaper
// is disabled or already running.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.Enabled || r.running {
		return
	}

	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.running = true

	go r.worker()

	logger.Info("upload reaper started (interval: %v, idle timeout: %v)",
		r.config.Interval, r.config.IdleTimeout)
}

// Stop halts the background loop, waiting for an in-flight scan to finish
// or the context to be cancelled.
func (r *Reaper) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	close(r.stopCh)
	doneCh := r.doneCh
	r.running = false
	r.mu.Unlock()

	select {
	case <-doneCh:
		logger.Info("upload reaper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow performs a single scan immediately, regardless of Enabled.
func (r *Reaper) RunNow(ctx context.Context) (ReapStats, error) {
	if err := ctx.Err(); err != nil {
		return ReapStats{}, err
	}
	return r.reap(), nil
}

func (r *Reaper) worker() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			stats := r.reap()
			if stats.ReclaimedSessions > 0 || stats.ArchivedSessions > 0 {
				logger.Info("upload reap: %s", stats.Summary())
			} else {
				logger.Debug("upload reap: %s", stats.Summary())
			}
		}
	}
}

func (r *Reaper) reap() ReapStats {
	stats := ReapStats{StartTime: time.Now()}
	now := stats.StartTime

	for _, sess := range r.manager.allSessions() {
		stats.CheckedSessions++

		sess.mu.Lock()
		status := sess.status
		lastActivity := sess.lastActivity
		completedTime := sess.completedTime
		id := sess.id
		sess.mu.Unlock()

		if status.Terminal() {
			if now.Sub(completedTime) > r.config.RetainTerminal {
				r.manager.remove(id)
				stats.ArchivedSessions++
			}
			continue
		}

		if now.Sub(lastActivity) > r.config.IdleTimeout {
			if err := r.manager.cancel(id, CancelReasonIdle); err != nil {
				// Processing sessions are left alone; they finish on
				// their own.
				logger.Debug("reaper skipped session %s: %v", id, err)
				continue
			}
			stats.ReclaimedSessions++
		}
	}

	stats.EndTime = time.Now()
	return stats
}
