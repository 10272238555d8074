package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// CreateFolder creates a folder under parentID.
//
// Uses a single update transaction: folder record, child index entry and
// the parent's counter change commit or fail together.
func (s *BadgerStore) CreateFolder(ctx context.Context, name string, parentID uuid.UUID, ownerID, description string) (*catalog.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("folder name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	folder := &catalog.FolderRecord{
		ID:          uuid.New(),
		Name:        name,
		ParentID:    parentID,
		OwnerID:     ownerID,
		Description: description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		exists, err := folderExistsTxn(txn, parentID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("parent %s: %w", parentID, catalog.ErrFolderNotFound)
		}

		// Sibling folder names must be unique.
		if _, err := txn.Get(keyChild(parentID, name)); err == nil {
			return fmt.Errorf("folder %q: %w", name, catalog.ErrAlreadyExists)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check sibling name: %w", err)
		}

		if err := putFolderTxn(txn, folder); err != nil {
			return err
		}
		if err := txn.Set(keyChild(parentID, name), encodeID(folder.ID)); err != nil {
			return fmt.Errorf("failed to index folder: %w", err)
		}

		return bumpSubfolderCount(txn, parentID, +1, now)
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

func (s *BadgerStore) GetFolder(ctx context.Context, id uuid.UUID) (*catalog.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *catalog.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		folder, err = getFolderTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *BadgerStore) ListFolders(ctx context.Context, parentID uuid.UUID) ([]*catalog.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*catalog.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		exists, err := folderExistsTxn(txn, parentID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("parent %s: %w", parentID, catalog.ErrFolderNotFound)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyChildPrefix(parentID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var childID uuid.UUID
			err := it.Item().Value(func(val []byte) error {
				id, err := decodeID(val)
				if err != nil {
					return err
				}
				childID = id
				return nil
			})
			if err != nil {
				return err
			}

			folder, err := getFolderTxn(txn, childID)
			if err != nil {
				return err
			}
			result = append(result, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *BadgerStore) RenameFolder(ctx context.Context, id uuid.UUID, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("folder name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		if folder.Name == newName {
			return nil
		}

		if _, err := txn.Get(keyChild(folder.ParentID, newName)); err == nil {
			return fmt.Errorf("folder %q: %w", newName, catalog.ErrAlreadyExists)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check sibling name: %w", err)
		}

		if err := txn.Delete(keyChild(folder.ParentID, folder.Name)); err != nil {
			return fmt.Errorf("failed to drop old index: %w", err)
		}
		if err := txn.Set(keyChild(folder.ParentID, newName), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index folder: %w", err)
		}

		folder.Name = newName
		folder.ModifiedAt = time.Now()
		return putFolderTxn(txn, folder)
	})
}

func (s *BadgerStore) MoveFolder(ctx context.Context, id uuid.UUID, newParentID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		exists, err := folderExistsTxn(txn, newParentID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("parent %s: %w", newParentID, catalog.ErrFolderNotFound)
		}
		if newParentID == folder.ParentID {
			return nil
		}

		// Walk from the destination up to the root; hitting the moved
		// folder means the move would create a cycle.
		for cursor := newParentID; cursor != uuid.Nil; {
			if cursor == id {
				return fmt.Errorf("folder %s into %s: %w", id, newParentID, catalog.ErrFolderCycle)
			}
			parent, err := getFolderTxn(txn, cursor)
			if err != nil {
				break
			}
			cursor = parent.ParentID
		}

		if _, err := txn.Get(keyChild(newParentID, folder.Name)); err == nil {
			return fmt.Errorf("folder %q: %w", folder.Name, catalog.ErrAlreadyExists)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check sibling name: %w", err)
		}

		now := time.Now()

		if err := txn.Delete(keyChild(folder.ParentID, folder.Name)); err != nil {
			return fmt.Errorf("failed to drop old index: %w", err)
		}
		if err := txn.Set(keyChild(newParentID, folder.Name), encodeID(id)); err != nil {
			return fmt.Errorf("failed to index folder: %w", err)
		}
		if err := bumpSubfolderCount(txn, folder.ParentID, -1, now); err != nil {
			return err
		}
		if err := bumpSubfolderCount(txn, newParentID, +1, now); err != nil {
			return err
		}

		folder.ParentID = newParentID
		folder.ModifiedAt = now
		return putFolderTxn(txn, folder)
	})
}

func (s *BadgerStore) DeleteFolder(ctx context.Context, id uuid.UUID, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == uuid.Nil {
		return fmt.Errorf("cannot delete the root: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}

		if !recursive && (folder.SubfolderCount > 0 || folder.FileCount > 0) {
			return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotEmpty)
		}

		if err := deleteFolderTreeTxn(txn, id); err != nil {
			return err
		}

		if err := txn.Delete(keyChild(folder.ParentID, folder.Name)); err != nil {
			return fmt.Errorf("failed to drop folder index: %w", err)
		}
		return bumpSubfolderCount(txn, folder.ParentID, -1, time.Now())
	})
}

// deleteFolderTreeTxn removes the subtree rooted at id. Subfolder records
// are dropped; contained files are soft-deleted so their records survive
// for audit and GC accounting.
func deleteFolderTreeTxn(txn *badger.Txn, id uuid.UUID) error {
	// Collect children first: deleting keys under an open iterator on the
	// same prefix is undefined.
	var children []uuid.UUID
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyChildPrefix(id)
	it := txn.NewIterator(opts)
	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			childID, err := decodeID(val)
			if err != nil {
				return err
			}
			children = append(children, childID)
			return nil
		})
		if err != nil {
			it.Close()
			return err
		}
	}
	it.Close()

	for _, childID := range children {
		child, err := getFolderTxn(txn, childID)
		if err != nil {
			return err
		}
		if err := deleteFolderTreeTxn(txn, childID); err != nil {
			return err
		}
		if err := txn.Delete(keyChild(id, child.Name)); err != nil {
			return fmt.Errorf("failed to drop folder index: %w", err)
		}
	}

	var members []uuid.UUID
	mopts := badger.DefaultIteratorOptions
	mopts.Prefix = keyMemberPrefix(id)
	mit := txn.NewIterator(mopts)
	for mit.Rewind(); mit.Valid(); mit.Next() {
		err := mit.Item().Value(func(val []byte) error {
			fileID, err := decodeID(val)
			if err != nil {
				return err
			}
			members = append(members, fileID)
			return nil
		})
		if err != nil {
			mit.Close()
			return err
		}
	}
	mit.Close()

	now := time.Now()
	for _, fileID := range members {
		file, err := getFileTxn(txn, fileID)
		if err != nil {
			return err
		}
		file.Status = catalog.FileStatusDeleted
		file.ModifiedAt = now
		if err := putFileTxn(txn, file); err != nil {
			return err
		}
		if err := txn.Delete(keyName(id, file.Name)); err != nil {
			return fmt.Errorf("failed to drop name index: %w", err)
		}
		if err := txn.Delete(keyMember(id, fileID)); err != nil {
			return fmt.Errorf("failed to drop membership index: %w", err)
		}
	}

	if err := txn.Delete(keyFolder(id)); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) Breadcrumb(ctx context.Context, id uuid.UUID) ([]*catalog.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chain []*catalog.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := getFolderTxn(txn, id); err != nil {
			return err
		}

		for cursor := id; cursor != uuid.Nil; {
			folder, err := getFolderTxn(txn, cursor)
			if err != nil {
				break
			}
			chain = append(chain, folder)
			cursor = folder.ParentID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected leaf-to-root; reverse so the root comes first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (s *BadgerStore) SetFolderShared(ctx context.Context, id uuid.UUID, shared bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		folder.Shared = shared
		return putFolderTxn(txn, folder)
	})
}

// bumpSubfolderCount adjusts a folder's subfolder counter. The root
// sentinel carries no record, so it is skipped.
func bumpSubfolderCount(txn *badger.Txn, id uuid.UUID, delta int, now time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	folder, err := getFolderTxn(txn, id)
	if err != nil {
		return err
	}
	folder.SubfolderCount += delta
	folder.ModifiedAt = now
	return putFolderTxn(txn, folder)
}

// bumpFileCount adjusts a folder's file counter. The root sentinel carries
// no record, so it is skipped.
func bumpFileCount(txn *badger.Txn, id uuid.UUID, delta int, now time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	folder, err := getFolderTxn(txn, id)
	if err != nil {
		return err
	}
	folder.FileCount += delta
	folder.ModifiedAt = now
	return putFolderTxn(txn, folder)
}
