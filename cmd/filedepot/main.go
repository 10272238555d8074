package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/config"
	"github.com/filedepot/filedepot/pkg/gc"
	"github.com/filedepot/filedepot/pkg/share"
	"github.com/filedepot/filedepot/pkg/upload"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flag wins over config file and environment
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := setupLogging(&cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	fmt.Println("FileDepot - resumable upload and file sharing backend")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ========================================================================
	// Metrics
	// ========================================================================

	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled on port %d", cfg.Metrics.Port)
	}

	// ========================================================================
	// Stores
	// ========================================================================

	blobs, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	logger.Info("Blob store initialized: type=%s", cfg.Blob.Type)

	cat, err := config.CreateCatalogStore(ctx, &cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to create catalog store: %v", err)
	}
	defer func() {
		if err := cat.Close(); err != nil {
			logger.Warn("Failed to close catalog store: %v", err)
		}
	}()
	logger.Info("Catalog store initialized: type=%s", cfg.Catalog.Type)

	shareStore, err := config.CreateShareStore(ctx, &cfg.Share)
	if err != nil {
		log.Fatalf("Failed to create share store: %v", err)
	}
	defer func() {
		if err := shareStore.Close(); err != nil {
			logger.Warn("Failed to close share store: %v", err)
		}
	}()
	logger.Info("Share store initialized: type=%s", cfg.Share.Type)

	// ========================================================================
	// Engines and background workers
	// ========================================================================

	manager := upload.NewManager(blobs, cat, cfg.Upload.Manager, metricsResult.Upload)
	reaper := upload.NewReaper(manager, cfg.Upload.Reaper)

	sweeper := share.NewSweeper(shareStore, cfg.Share.Sweeper, metricsResult.Share)

	collector, err := gc.NewCollector(cat, blobs, cfg.GC)
	if err != nil {
		log.Fatalf("Failed to create garbage collector: %v", err)
	}

	reaper.Start()
	sweeper.Start()
	collector.Start()

	// Drain upload lifecycle events. Without a consumer the bounded queue
	// fills and the manager starts dropping.
	go func() {
		for ev := range manager.Events() {
			logger.Debug("Upload event: type=%s session=%s file=%s progress=%.1f%%",
				ev.Type, ev.SessionID, ev.FileName, ev.Percent)
		}
	}()

	// Start metrics server in background
	metricsDone := make(chan error, 1)
	if metricsResult.Server != nil {
		go func() {
			metricsDone <- metricsResult.Server.Start(ctx)
		}()
	}

	// ========================================================================
	// Wait for shutdown
	// ========================================================================

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("FileDepot is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-metricsDone:
		if err != nil {
			logger.Error("Metrics server error: %v", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := collector.Stop(shutdownCtx); err != nil {
		logger.Warn("Garbage collector shutdown: %v", err)
	}
	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Warn("Share sweeper shutdown: %v", err)
	}
	if err := reaper.Stop(shutdownCtx); err != nil {
		logger.Warn("Upload reaper shutdown: %v", err)
	}
	if metricsResult.Server != nil {
		if err := metricsResult.Server.Stop(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown: %v", err)
		}
	}

	logger.Info("FileDepot stopped gracefully")
}

// setupLogging applies the logging configuration to the process logger.
func setupLogging(cfg *config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "", "stdout":
		// default
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(f)
	}

	return nil
}
