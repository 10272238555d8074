// Package fs implements filesystem-based content-addressed storage.
//
// Content is stored under basePath sharded by the first two characters of
// the hash ("ab/abcdef...") to keep directory fan-out bounded on large
// stores. Writes go through a temp file followed by an atomic rename so a
// crash mid-write never leaves a partial object under its final name.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/filedepot/filedepot/pkg/blob"
)

// FSStore implements blob.WritableStore and blob.ListableStore on the
// local filesystem.
//
// Thread Safety:
// Filesystem operations are safe at the OS level. Because objects are
// content-addressed and written via rename, concurrent Puts of identical
// bytes race harmlessly: both produce the same final file.
type FSStore struct {
	basePath string
}

// NewFSStore creates a filesystem blob store rooted at basePath, creating
// the directory if needed.
func NewFSStore(ctx context.Context, basePath string) (*FSStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{basePath: basePath}, nil
}

// objectPath returns the sharded path for a hash.
func (s *FSStore) objectPath(hash blob.Hash) (string, error) {
	if len(hash) < 3 {
		return "", fmt.Errorf("hash %q: %w", hash, blob.ErrInvalidHash)
	}
	return filepath.Join(s.basePath, string(hash[:2]), string(hash)), nil
}

func (s *FSStore) Open(ctx context.Context, hash blob.Hash) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.objectPath(hash)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", hash, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open content %s: %w", hash, err)
	}
	return f, nil
}

func (s *FSStore) Size(ctx context.Context, hash blob.Hash) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := s.objectPath(hash)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("size %s: %w", hash, blob.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to stat content %s: %w", hash, err)
	}
	return uint64(info.Size()), nil
}

func (s *FSStore) Exists(ctx context.Context, hash blob.Hash) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := s.objectPath(hash)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat content %s: %w", hash, err)
}

func (s *FSStore) Put(ctx context.Context, data []byte) (blob.Hash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := blob.Sum(data)

	path, err := s.objectPath(hash)
	if err != nil {
		return "", err
	}

	// Fast path: content already present.
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create shard directory: %w", err)
	}

	// Write to a temp file in the same directory, then rename. Rename is
	// atomic on POSIX filesystems, so readers never observe partial
	// content under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return "", fmt.Errorf("write timed out: %w", blob.ErrUnavailable)
		}
		return "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit content: %w", err)
	}

	return hash, nil
}

func (s *FSStore) PutStream(ctx context.Context, r io.Reader) (blob.Hash, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	// The hash is not known until the stream is fully consumed, so the
	// stream is buffered and delegated to Put.
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

func (s *FSStore) Delete(ctx context.Context, hash blob.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.objectPath(hash)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content %s: %w", hash, err)
	}
	return nil
}

func (s *FSStore) List(ctx context.Context) ([]blob.Hash, error) {
	var hashes []blob.Hash

	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		// Skip temp files from in-flight Puts.
		if len(name) > 0 && name[0] == '.' {
			return nil
		}
		hashes = append(hashes, blob.Hash(name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	return hashes, nil
}
