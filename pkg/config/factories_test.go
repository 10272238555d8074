package config

import (
	"context"
	"testing"

	"github.com/filedepot/filedepot/pkg/blob"
)

func TestCreateBlobStore_Memory(t *testing.T) {
	cfg := &BlobConfig{Type: "memory"}

	store, err := CreateBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory blob store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateBlobStore_Filesystem(t *testing.T) {
	cfg := &BlobConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem blob store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateBlobStore_FilesystemRequiresPath(t *testing.T) {
	cfg := &BlobConfig{Type: "filesystem", Filesystem: map[string]any{}}

	if _, err := CreateBlobStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing path")
	}
}

func TestCreateBlobStore_UnknownType(t *testing.T) {
	cfg := &BlobConfig{Type: "tape"}

	if _, err := CreateBlobStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for unknown store type")
	}
}

func TestCreateBlobStore_RetryWrapping(t *testing.T) {
	cfg := &BlobConfig{
		Type:  "memory",
		Retry: RetryConfig{Enabled: true, MaxAttempts: 3},
	}

	store, err := CreateBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create wrapped store: %v", err)
	}
	if _, ok := store.(*blob.Retrying); !ok {
		t.Fatalf("Expected *blob.Retrying, got %T", store)
	}
}

func TestCreateBlobStore_S3RequiresBucket(t *testing.T) {
	cfg := &BlobConfig{
		Type: "s3",
		S3:   map[string]any{"region": "us-east-1"},
	}

	if _, err := CreateBlobStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing bucket")
	}
}

func TestCreateCatalogStore_Memory(t *testing.T) {
	cfg := &CatalogConfig{Type: "memory"}

	store, err := CreateCatalogStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory catalog: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateCatalogStore_Badger(t *testing.T) {
	cfg := &CatalogConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}

	store, err := CreateCatalogStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger catalog: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateCatalogStore_BadgerRequiresPath(t *testing.T) {
	cfg := &CatalogConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateCatalogStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing db_path")
	}
}

func TestCreateShareStore_Memory(t *testing.T) {
	cfg := &ShareConfig{Type: "memory"}

	store, err := CreateShareStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory share store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateShareStore_Badger(t *testing.T) {
	cfg := &ShareConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}

	store, err := CreateShareStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger share store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}
