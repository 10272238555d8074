// Package gc provides garbage collection for orphaned blobs.
//
// The catalog never deletes content when files are removed: deletion is a
// soft status flip and blobs are shared across versions and users through
// content addressing. Orphans accumulate when every catalog reference to a
// hash is gone, or when a crash interrupts an upload between the blob
// write and the version commit. The collector periodically computes
// orphaned = stored - referenced and deletes the difference.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
)

// Collector performs periodic garbage collection on the blob store.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	catalog catalog.Store
	blobs   blob.WritableStore
	lister  blob.ListableStore
	config  Config
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether garbage collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Interval is how often to run garbage collection (default: 24h).
	// Long intervals also keep the collector clear of in-flight uploads
	// that have written their blob but not yet committed a version.
	Interval time.Duration `mapstructure:"interval"`

	// DryRun mode logs what would be deleted without actually deleting.
	DryRun bool `mapstructure:"dry_run"`
}

// NewCollector creates a new garbage collector.
//
// The collector will be initialized but not started. Call Start() to
// begin background garbage collection. The blob store must implement
// blob.ListableStore so orphans can be enumerated.
func NewCollector(cat catalog.Store, blobs blob.WritableStore, config Config) (*Collector, error) {
	lister, ok := blobs.(blob.ListableStore)
	if !ok {
		return nil, fmt.Errorf("blob store does not support content listing")
	}

	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &Collector{
		catalog: cat,
		blobs:   blobs,
		lister:  lister,
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins background garbage collection.
//
// Safe to call multiple times (subsequent calls are no-ops).
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s dry_run=%v",
		c.config.Interval, c.config.DryRun)

	go c.worker()
}

// Stop stops the garbage collector and waits for it to finish.
//
// Safe to call once; returns the context error if shutdown takes longer
// than the caller allows.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping garbage collector...")

	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped successfully")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate garbage collection run.
//
// This is useful for testing, manual triggers via admin tooling, and
// initial cleanup on startup. Blocks until collection completes or the
// context is cancelled.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic collection.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	logger.Info("Garbage collector worker started")

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			logger.Info("Garbage collector worker stopping...")
			return
		}
	}
}

// collect performs a single garbage collection run.
//
// The core algorithm:
//  1. Get every content hash the catalog references (deleted files
//     included: their blobs stay reachable for version history)
//  2. List every hash in the blob store
//  3. Compute orphaned = stored - referenced
//  4. Delete orphaned blobs
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	referenced, err := c.catalog.AllContentHashes(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get referenced hashes: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	existing, err := c.lister.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list blobs: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	orphaned := make([]blob.Hash, 0)
	for _, hash := range existing {
		if _, ok := referenced[hash]; !ok {
			orphaned = append(orphaned, hash)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 {
		logger.Info("GC: No orphaned blobs found")
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: Found %d orphaned blobs", stats.OrphanedCount)

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - would delete %d blobs", stats.OrphanedCount)
		for i, hash := range orphaned {
			if i >= 10 {
				logger.Info("  ... and %d more", len(orphaned)-10)
				break
			}
			logger.Info("  - %s", hash)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, hash := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		if size, err := c.blobs.Size(ctx, hash); err == nil {
			stats.ReclaimedBytes += size
		}

		if err := c.blobs.Delete(ctx, hash); err != nil {
			logger.Warn("GC: Failed to delete %s: %v", hash, err)
			stats.FailedCount++
			continue
		}
		stats.DeletedCount++
	}

	stats.EndTime = time.Now()

	logger.Info("GC: Completed - deleted %d blobs (%d bytes), %d failed, duration=%s",
		stats.DeletedCount, stats.ReclaimedBytes, stats.FailedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // Hashes referenced by the catalog
	ExistingCount   uint64    // Hashes present in the blob store
	OrphanedCount   uint64    // Orphaned hashes found
	DeletedCount    uint64    // Orphans successfully deleted
	FailedCount     uint64    // Orphans that failed to delete
	ReclaimedBytes  uint64    // Total size of deleted blobs
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d reclaimed=%dB duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.ReclaimedBytes, s.Duration())
}
