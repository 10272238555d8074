// Package blob defines the content-addressed byte storage contract used by
// the upload manager and the share engine.
//
// The blob store manages only raw file bytes. It does NOT manage:
//   - File metadata (names, folders, versions) → handled by pkg/catalog
//   - Permissions and download quotas → handled by pkg/share
//
// Content Addressing:
// Content is keyed by the SHA-256 digest of its bytes, hex-encoded. Storing
// the same bytes twice is idempotent and yields the same Hash, which gives
// deduplication across file versions and users for free. Callers obtain a
// Hash from Put and record it in the catalog; readers present the Hash back
// to Open.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Put of identical bytes may race freely (both writers produce the same
// object); callers never need external synchronization for blob access.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Hash identifies stored content by the hex-encoded SHA-256 of its bytes.
type Hash string

// Sum computes the store key for a byte slice. Exposed so the upload
// manager can verify assembled content against a client-declared digest
// without an extra round trip through the store.
func Sum(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// Store provides read access to content-addressed storage.
type Store interface {
	// Open returns a reader for the content identified by hash.
	// The caller must close the reader. Returns ErrNotFound if the
	// content does not exist.
	Open(ctx context.Context, hash Hash) (io.ReadCloser, error)

	// Size returns the content length in bytes without reading the data.
	// Returns ErrNotFound if the content does not exist.
	Size(ctx context.Context, hash Hash) (uint64, error)

	// Exists reports whether content with the given hash is present.
	// Absence is not an error: (false, nil) is returned for unknown
	// hashes, errors are reserved for storage access failures.
	Exists(ctx context.Context, hash Hash) (bool, error)
}

// WritableStore extends Store with mutation. Put is the only way content
// enters the system; Delete exists for garbage collection of orphaned
// content and is idempotent.
type WritableStore interface {
	Store

	// Put stores data and returns its content hash. Writing bytes that
	// are already present is a no-op that returns the existing hash.
	Put(ctx context.Context, data []byte) (Hash, error)

	// PutStream stores content from a reader. Implementations that
	// cannot hash while streaming may buffer. Returns the content hash
	// and the number of bytes consumed.
	PutStream(ctx context.Context, r io.Reader) (Hash, uint64, error)

	// Delete removes content. Deleting an unknown hash succeeds.
	Delete(ctx context.Context, hash Hash) error
}

// ListableStore is implemented by backends that can enumerate their
// content, which the orphan collector requires.
type ListableStore interface {
	// List returns the hashes of all stored content. The result is a
	// snapshot and may be stale by the time it is consumed.
	List(ctx context.Context) ([]Hash, error)
}

// Stats describes storage occupancy for dashboards and capacity checks.
type Stats struct {
	// UsedBytes is the total size of stored content.
	UsedBytes uint64

	// ObjectCount is the number of distinct content objects.
	ObjectCount uint64
}

// StatsReporter is implemented by backends that can report occupancy.
type StatsReporter interface {
	GetStats(ctx context.Context) (*Stats, error)
}
