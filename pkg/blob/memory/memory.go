// Package memory implements in-memory content-addressed storage.
//
// This implementation keeps all content in a map. It is designed for:
//   - Testing and development
//   - Ephemeral deployments where durability is handled elsewhere
//
// Characteristics:
//   - Fast: all operations are memory-speed
//   - Volatile: data lost on restart
//   - Thread-safe: protected by RWMutex; data is copied on write and
//     wrapped in fresh readers on read, so callers never share buffers
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/filedepot/filedepot/pkg/blob"
)

// MemoryStore implements blob.WritableStore, blob.ListableStore and
// blob.StatsReporter backed by a map keyed by content hash.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[blob.Hash][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[blob.Hash][]byte),
	}
}

func (s *MemoryStore) Open(ctx context.Context, hash blob.Hash) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[hash]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", hash, blob.ErrNotFound)
	}

	// The stored slice is never mutated after Put, so the reader can
	// reference it directly without a copy.
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Size(ctx context.Context, hash blob.Hash) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[hash]
	if !ok {
		return 0, fmt.Errorf("size %s: %w", hash, blob.ErrNotFound)
	}
	return uint64(len(data)), nil
}

func (s *MemoryStore) Exists(ctx context.Context, hash blob.Hash) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[hash]
	return ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, data []byte) (blob.Hash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := blob.Sum(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent: identical bytes hash to the same key.
	if _, ok := s.data[hash]; ok {
		return hash, nil
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[hash] = stored

	return hash, nil
}

func (s *MemoryStore) PutStream(ctx context.Context, r io.Reader) (blob.Hash, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read content stream: %w", err)
	}

	hash, err := s.Put(ctx, data)
	if err != nil {
		return "", 0, err
	}
	return hash, uint64(len(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, hash blob.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent: deleting unknown content succeeds.
	delete(s.data, hash)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]blob.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]blob.Hash, 0, len(s.data))
	for h := range s.data {
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func (s *MemoryStore) GetStats(ctx context.Context) (*blob.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	used := uint64(0)
	for _, data := range s.data {
		used += uint64(len(data))
	}

	return &blob.Stats{
		UsedBytes:   used,
		ObjectCount: uint64(len(s.data)),
	}, nil
}
