package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

blob:
  type: "filesystem"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Catalog.Type != "memory" {
		t.Errorf("Expected default catalog type 'memory', got %q", cfg.Catalog.Type)
	}
	if cfg.Share.Type != "memory" {
		t.Errorf("Expected default share type 'memory', got %q", cfg.Share.Type)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if path := cfg.Blob.Filesystem["path"]; path != "/tmp/filedepot-blobs" {
		t.Errorf("Expected default blob path, got %v", path)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a temporary directory with a non-existent config file path
	// so the user's real config in ~/.config/filedepot/ is not picked up
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Blob.Type != "filesystem" {
		t.Errorf("Expected default blob type 'filesystem', got %q", cfg.Blob.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  output: "stderr"

server:
  shutdown_timeout: 10s

blob:
  type: "s3"
  s3:
    region: "us-east-1"
    bucket: "depot"
    endpoint: "http://localhost:9000"

catalog:
  type: "badger"
  badger:
    db_path: "/var/lib/filedepot/catalog"

share:
  type: "badger"
  badger:
    db_path: "/var/lib/filedepot/shares"
  engine:
    default_link_ttl: 1h
    max_link_ttl: 48h
    auth_cache_ttl: 2s
  sweeper:
    enabled: true
    interval: 5m

upload:
  manager:
    chunk_size: 1048576
    speed_window: 30s
  reaper:
    enabled: true
    idle_timeout: 15m

gc:
  enabled: true
  interval: 12h
  dry_run: true

metrics:
  enabled: true
  port: 9191
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Levels are normalized to uppercase
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown_timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Blob.Type != "s3" {
		t.Errorf("Expected blob type 's3', got %q", cfg.Blob.Type)
	}
	// The retry wrapper defaults on for s3
	if !cfg.Blob.Retry.Enabled {
		t.Error("Expected retry enabled for s3 blob store")
	}
	if cfg.Catalog.Badger["db_path"] != "/var/lib/filedepot/catalog" {
		t.Errorf("Unexpected catalog db_path: %v", cfg.Catalog.Badger["db_path"])
	}
	if cfg.Share.Engine.DefaultLinkTTL != time.Hour {
		t.Errorf("Expected default_link_ttl 1h, got %v", cfg.Share.Engine.DefaultLinkTTL)
	}
	if cfg.Share.Engine.MaxLinkTTL != 48*time.Hour {
		t.Errorf("Expected max_link_ttl 48h, got %v", cfg.Share.Engine.MaxLinkTTL)
	}
	if cfg.Share.Sweeper.Interval != 5*time.Minute {
		t.Errorf("Expected sweeper interval 5m, got %v", cfg.Share.Sweeper.Interval)
	}
	if cfg.Upload.Manager.ChunkSize != 1048576 {
		t.Errorf("Expected chunk_size 1MiB, got %d", cfg.Upload.Manager.ChunkSize)
	}
	if cfg.Upload.Reaper.IdleTimeout != 15*time.Minute {
		t.Errorf("Expected idle_timeout 15m, got %v", cfg.Upload.Reaper.IdleTimeout)
	}
	if !cfg.GC.Enabled || !cfg.GC.DryRun {
		t.Error("Expected gc enabled with dry_run")
	}
	if cfg.GC.Interval != 12*time.Hour {
		t.Errorf("Expected gc interval 12h, got %v", cfg.GC.Interval)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Errorf("Unexpected metrics config: %+v", cfg.Metrics)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("FILEDEPOT_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected env override 'ERROR', got %q", cfg.Logging.Level)
	}
}
