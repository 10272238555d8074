package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a minimal configuration that passes validation.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "TRACE"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestValidate_BadBlobType(t *testing.T) {
	cfg := validConfig()
	cfg.Blob.Type = "gcs"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unsupported blob type")
	}
}

func TestValidate_LinkTTLOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Share.Engine.DefaultLinkTTL = 48 * time.Hour
	cfg.Share.Engine.MaxLinkTTL = time.Hour

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error when default_link_ttl exceeds max_link_ttl")
	}
	if !strings.Contains(err.Error(), "max_link_ttl") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestValidate_NegativeDurations(t *testing.T) {
	cfg := validConfig()
	cfg.GC.Interval = -time.Hour

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for negative gc interval")
	}
}

func TestValidate_PersistentCatalogEphemeralBlobs(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Type = "badger"
	cfg.Blob.Type = "memory"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for badger catalog over memory blob store")
	}
}

func TestValidate_MetricsPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out-of-range metrics port")
	}
}
