// Package badger implements the catalog Store on BadgerDB, an embedded
// key-value store with WAL-based crash recovery.
package badger

import (
	"context"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// BadgerStore implements catalog.Store using BadgerDB for persistence.
//
// It is suitable for production deployments where the catalog must survive
// restarts. Records and indexes are organized with prefixed keys (see
// keys.go for the schema).
//
// Thread Safety:
// Mutations take a single write mutex on top of BadgerDB's transactions.
// The transactions alone would detect write conflicts, but the mutex keeps
// the derived folder counters strictly serialized without conflict-retry
// loops. Reads run lock-free on snapshot transactions.
type BadgerStore struct {
	db *badger.DB

	// mu serializes mutating operations. See the type comment.
	mu sync.Mutex
}

// BadgerStoreConfig contains configuration for creating a BadgerDB catalog.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// BadgerOptions allows customization of BadgerDB behavior.
	// If nil, sensible defaults are used.
	BadgerOptions *badger.Options

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64).
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32).
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// NewBadgerStore opens (or creates) a BadgerDB catalog at the configured
// path. The returned store is immediately ready for concurrent use.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions(config.DBPath)

		// Catalog records are small; compression overhead is not worth it.
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 64
		}
		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 32
		}

		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// getFolderTxn reads a folder record inside a transaction.
func getFolderTxn(txn *badger.Txn, id uuid.UUID) (*catalog.FolderRecord, error) {
	item, err := txn.Get(keyFolder(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder %s: %w", id, err)
	}

	var folder *catalog.FolderRecord
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFolder(val)
		if err != nil {
			return err
		}
		folder = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// getFileTxn reads a file record inside a transaction.
func getFileTxn(txn *badger.Txn, id uuid.UUID) (*catalog.FileRecord, error) {
	item, err := txn.Get(keyFile(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", id, err)
	}

	var file *catalog.FileRecord
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFile(val)
		if err != nil {
			return err
		}
		file = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// putFolderTxn writes a folder record inside a transaction.
func putFolderTxn(txn *badger.Txn, folder *catalog.FolderRecord) error {
	encoded, err := encodeFolder(folder)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFolder(folder.ID), encoded); err != nil {
		return fmt.Errorf("failed to store folder %s: %w", folder.ID, err)
	}
	return nil
}

// putFileTxn writes a file record inside a transaction.
func putFileTxn(txn *badger.Txn, file *catalog.FileRecord) error {
	encoded, err := encodeFile(file)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFile(file.ID), encoded); err != nil {
		return fmt.Errorf("failed to store file %s: %w", file.ID, err)
	}
	return nil
}

// folderExistsTxn reports whether id names a folder. The root sentinel
// (uuid.Nil) always exists.
func folderExistsTxn(txn *badger.Txn, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return true, nil
	}
	_, err := txn.Get(keyFolder(id))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check folder %s: %w", id, err)
	}
	return true, nil
}
