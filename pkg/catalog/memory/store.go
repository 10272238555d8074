// Package memory implements the catalog Store using in-memory maps.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// MemoryStore implements catalog.Store using in-memory storage.
//
// This implementation is suitable for:
//   - Testing and development environments
//   - Ephemeral deployments where persistence is not required
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu), making the
// store safe for concurrent access from multiple goroutines. This
// coarse-grained locking is simple and correct, though fine-grained locking
// could improve concurrency for high-throughput scenarios.
//
// Storage Model:
//
// The store maintains interconnected maps that together represent the
// catalog:
//
//  1. folders: folder id → FolderRecord, the folder tree.
//  2. files: file id → FileRecord, the primary metadata storage.
//  3. filesByFolder: folder id → set of file ids, for listings.
//  4. foldersByParent: parent id → set of folder ids, for listings and
//     cycle checks.
//
// Consistency Guarantees:
//   - Every file id in filesByFolder exists in files
//   - Every folder id in foldersByParent exists in folders
//   - FolderRecord counters match the live entries in the index maps
type MemoryStore struct {
	mu sync.RWMutex

	folders map[uuid.UUID]*catalog.FolderRecord
	files   map[uuid.UUID]*catalog.FileRecord

	filesByFolder   map[uuid.UUID]map[uuid.UUID]struct{}
	foldersByParent map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders:         make(map[uuid.UUID]*catalog.FolderRecord),
		files:           make(map[uuid.UUID]*catalog.FileRecord),
		filesByFolder:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
		foldersByParent: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Close releases nothing for the memory store but satisfies catalog.Store.
func (s *MemoryStore) Close() error {
	return nil
}

// folderExists reports whether id names a folder. The root sentinel
// (uuid.Nil) always exists. Callers must hold the lock.
func (s *MemoryStore) folderExists(id uuid.UUID) bool {
	if id == uuid.Nil {
		return true
	}
	_, ok := s.folders[id]
	return ok
}

// checkCtx is the standard context gate at the top of every operation.
func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

// cloneFile returns a defensive copy so callers cannot mutate store state.
func cloneFile(f *catalog.FileRecord) *catalog.FileRecord {
	c := *f
	if f.Tags != nil {
		c.Tags = append([]string(nil), f.Tags...)
	}
	return &c
}

func cloneFolder(f *catalog.FolderRecord) *catalog.FolderRecord {
	c := *f
	return &c
}
