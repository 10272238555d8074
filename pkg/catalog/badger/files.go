package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
)

func (s *BadgerStore) GetFile(ctx context.Context, id uuid.UUID) (*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *catalog.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		file, err = getFileTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *BadgerStore) FindFileByName(ctx context.Context, folderID uuid.UUID, name string) (*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *catalog.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		fileID, err := lookupNameTxn(txn, folderID, name)
		if err != nil {
			return err
		}
		file, err = getFileTxn(txn, fileID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *BadgerStore) ListFiles(ctx context.Context, folderID uuid.UUID) ([]*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*catalog.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		exists, err := folderExistsTxn(txn, folderID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("folder %s: %w", folderID, catalog.ErrFolderNotFound)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyMemberPrefix(folderID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var fileID uuid.UUID
			err := it.Item().Value(func(val []byte) error {
				id, err := decodeID(val)
				if err != nil {
					return err
				}
				fileID = id
				return nil
			})
			if err != nil {
				return err
			}

			file, err := getFileTxn(txn, fileID)
			if err != nil {
				return err
			}
			result = append(result, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CommitVersion records a completed upload as a new file or a new version
// of an existing file identity, in one transaction.
func (s *BadgerStore) CommitVersion(ctx context.Context, commit catalog.VersionCommit) (*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if commit.Name == "" {
		return nil, fmt.Errorf("file name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result *catalog.FileRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		exists, err := folderExistsTxn(txn, commit.FolderID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("folder %s: %w", commit.FolderID, catalog.ErrFolderNotFound)
		}

		now := time.Now()

		existingID, err := lookupNameTxn(txn, commit.FolderID, commit.Name)
		if err == nil {
			file, err := getFileTxn(txn, existingID)
			if err != nil {
				return err
			}

			file.Version++
			file.Size = commit.Size
			file.ContentHash = commit.ContentHash
			file.ContentType = commit.ContentType
			if commit.Description != "" {
				file.Description = commit.Description
			}
			file.Status = catalog.FileStatusAvailable
			file.ModifiedAt = now

			if err := putFileTxn(txn, file); err != nil {
				return err
			}
			result = file
			return nil
		}

		file := &catalog.FileRecord{
			ID:          uuid.New(),
			Name:        commit.Name,
			FolderID:    commit.FolderID,
			OwnerID:     commit.OwnerID,
			Size:        commit.Size,
			ContentHash: commit.ContentHash,
			ContentType: commit.ContentType,
			Description: commit.Description,
			Status:      catalog.FileStatusAvailable,
			Version:     1,
			CreatedAt:   now,
			ModifiedAt:  now,
		}

		if err := putFileTxn(txn, file); err != nil {
			return err
		}
		if err := txn.Set(keyName(commit.FolderID, commit.Name), encodeID(file.ID)); err != nil {
			return fmt.Errorf("failed to index file name: %w", err)
		}
		if err := txn.Set(keyMember(commit.FolderID, file.ID), encodeID(file.ID)); err != nil {
			return fmt.Errorf("failed to index membership: %w", err)
		}
		if err := bumpFileCount(txn, commit.FolderID, +1, now); err != nil {
			return err
		}

		result = file
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerStore) RenameFile(ctx context.Context, id uuid.UUID, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("file name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getLiveFileTxn(txn, id)
		if err != nil {
			return err
		}
		if file.Name == newName {
			return nil
		}

		if otherID, err := lookupNameTxn(txn, file.FolderID, newName); err == nil && otherID != id {
			return fmt.Errorf("file %q: %w", newName, catalog.ErrAlreadyExists)
		}

		if err := txn.Delete(keyName(file.FolderID, file.Name)); err != nil {
			return fmt.Errorf("failed to drop name index: %w", err)
		}
		if err := txn.Set(keyName(file.FolderID, newName), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index file name: %w", err)
		}

		file.Name = newName
		file.ModifiedAt = time.Now()
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) MoveFile(ctx context.Context, id uuid.UUID, newFolderID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getLiveFileTxn(txn, id)
		if err != nil {
			return err
		}
		exists, err := folderExistsTxn(txn, newFolderID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("folder %s: %w", newFolderID, catalog.ErrFolderNotFound)
		}
		if newFolderID == file.FolderID {
			return nil
		}
		if _, err := lookupNameTxn(txn, newFolderID, file.Name); err == nil {
			return fmt.Errorf("file %q: %w", file.Name, catalog.ErrAlreadyExists)
		}

		now := time.Now()

		if err := txn.Delete(keyName(file.FolderID, file.Name)); err != nil {
			return fmt.Errorf("failed to drop name index: %w", err)
		}
		if err := txn.Delete(keyMember(file.FolderID, id)); err != nil {
			return fmt.Errorf("failed to drop membership index: %w", err)
		}
		if err := txn.Set(keyName(newFolderID, file.Name), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index file name: %w", err)
		}
		if err := txn.Set(keyMember(newFolderID, id), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index membership: %w", err)
		}
		if err := bumpFileCount(txn, file.FolderID, -1, now); err != nil {
			return err
		}
		if err := bumpFileCount(txn, newFolderID, +1, now); err != nil {
			return err
		}

		file.FolderID = newFolderID
		file.ModifiedAt = now
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}
		if file.Status == catalog.FileStatusDeleted {
			return nil
		}

		now := time.Now()
		file.Status = catalog.FileStatusDeleted
		file.ModifiedAt = now

		if err := putFileTxn(txn, file); err != nil {
			return err
		}
		if err := txn.Delete(keyName(file.FolderID, file.Name)); err != nil {
			return fmt.Errorf("failed to drop name index: %w", err)
		}
		if err := txn.Delete(keyMember(file.FolderID, id)); err != nil {
			return fmt.Errorf("failed to drop membership index: %w", err)
		}
		return bumpFileCount(txn, file.FolderID, -1, now)
	})
}

func (s *BadgerStore) SetFileStatus(ctx context.Context, id uuid.UUID, status catalog.FileStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}
		file.Status = status
		file.ModifiedAt = time.Now()
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getLiveFileTxn(txn, id)
		if err != nil {
			return err
		}
		file.DownloadCount++
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getLiveFileTxn(txn, id)
		if err != nil {
			return err
		}
		file.Tags = append([]string(nil), tags...)
		file.ModifiedAt = time.Now()
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) SetFileShared(ctx context.Context, id uuid.UUID, shared bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getLiveFileTxn(txn, id)
		if err != nil {
			return err
		}
		file.Shared = shared
		return putFileTxn(txn, file)
	})
}

func (s *BadgerStore) ListByOwner(ctx context.Context, ownerID string) ([]*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.scanFiles(ctx, func(file *catalog.FileRecord) bool {
		return file.Status != catalog.FileStatusDeleted && file.OwnerID == ownerID
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *BadgerStore) ListRecent(ctx context.Context, ownerID string, limit int) ([]*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.scanFiles(ctx, func(file *catalog.FileRecord) bool {
		if file.Status == catalog.FileStatusDeleted {
			return false
		}
		return ownerID == "" || file.OwnerID == ownerID
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ModifiedAt.After(result[j].ModifiedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *BadgerStore) AllContentHashes(ctx context.Context) (map[blob.Hash]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hashes := make(map[blob.Hash]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				file, err := decodeFile(val)
				if err != nil {
					return err
				}
				if file.ContentHash != "" {
					hashes[file.ContentHash] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

// scanFiles walks every file record and keeps those accepted by keep.
// A full scan is acceptable: owner and recency queries are dashboard
// operations, not hot-path ones.
func (s *BadgerStore) scanFiles(ctx context.Context, keep func(*catalog.FileRecord) bool) ([]*catalog.FileRecord, error) {
	var result []*catalog.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				file, err := decodeFile(val)
				if err != nil {
					return err
				}
				if keep(file) {
					result = append(result, file)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lookupNameTxn resolves a live (folder, name) pair to a file id.
func lookupNameTxn(txn *badger.Txn, folderID uuid.UUID, name string) (uuid.UUID, error) {
	item, err := txn.Get(keyName(folderID, name))
	if err == badger.ErrKeyNotFound {
		return uuid.Nil, fmt.Errorf("file %q in %s: %w", name, folderID, catalog.ErrFileNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up name: %w", err)
	}

	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		decoded, err := decodeID(val)
		if err != nil {
			return err
		}
		id = decoded
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// getLiveFileTxn reads a file record and rejects soft-deleted ones.
func getLiveFileTxn(txn *badger.Txn, id uuid.UUID) (*catalog.FileRecord, error) {
	file, err := getFileTxn(txn, id)
	if err != nil {
		return nil, err
	}
	if file.Status == catalog.FileStatusDeleted {
		return nil, fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	return file, nil
}
