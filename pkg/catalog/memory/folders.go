package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// CreateFolder creates a folder under parentID.
//
// Thread Safety: Safe for concurrent use.
func (s *MemoryStore) CreateFolder(ctx context.Context, name string, parentID uuid.UUID, ownerID, description string) (*catalog.FolderRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("folder name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.folderExists(parentID) {
		return nil, fmt.Errorf("parent %s: %w", parentID, catalog.ErrFolderNotFound)
	}

	// Sibling folder names must be unique.
	for sibling := range s.foldersByParent[parentID] {
		if s.folders[sibling].Name == name {
			return nil, fmt.Errorf("folder %q: %w", name, catalog.ErrAlreadyExists)
		}
	}

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

	s.folders[folder.ID] = folder
	s.indexFolder(folder)

	return cloneFolder(folder), nil
}

func (s *MemoryStore) GetFolder(ctx context.Context, id uuid.UUID) (*catalog.FolderRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}
	return cloneFolder(folder), nil
}

func (s *MemoryStore) ListFolders(ctx context.Context, parentID uuid.UUID) ([]*catalog.FolderRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.folderExists(parentID) {
		return nil, fmt.Errorf("parent %s: %w", parentID, catalog.ErrFolderNotFound)
	}

	result := make([]*catalog.FolderRecord, 0, len(s.foldersByParent[parentID]))
	for id := range s.foldersByParent[parentID] {
		result = append(result, cloneFolder(s.folders[id]))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

func (s *MemoryStore) RenameFolder(ctx context.Context, id uuid.UUID, newName string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("folder name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}

	for sibling := range s.foldersByParent[folder.ParentID] {
		if sibling != id && s.folders[sibling].Name == newName {
			return fmt.Errorf("folder %q: %w", newName, catalog.ErrAlreadyExists)
		}
	}

	folder.Name = newName
	folder.ModifiedAt = time.Now()
	return nil
}

// MoveFolder reparents a folder after checking that the destination is not
// inside the folder's own subtree.
func (s *MemoryStore) MoveFolder(ctx context.Context, id uuid.UUID, newParentID uuid.UUID) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}
	if !s.folderExists(newParentID) {
		return fmt.Errorf("parent %s: %w", newParentID, catalog.ErrFolderNotFound)
	}
	if newParentID == folder.ParentID {
		return nil
	}

	// Walk from the destination up to the root; hitting the moved folder
	// means the move would create a cycle.
	for cursor := newParentID; cursor != uuid.Nil; {
		if cursor == id {
			return fmt.Errorf("folder %s into %s: %w", id, newParentID, catalog.ErrFolderCycle)
		}
		parent, ok := s.folders[cursor]
		if !ok {
			break
		}
		cursor = parent.ParentID
	}

	for sibling := range s.foldersByParent[newParentID] {
		if s.folders[sibling].Name == folder.Name {
			return fmt.Errorf("folder %q: %w", folder.Name, catalog.ErrAlreadyExists)
		}
	}

	s.unindexFolder(folder)
	if old, ok := s.folders[folder.ParentID]; ok {
		old.SubfolderCount--
	}

	folder.ParentID = newParentID
	folder.ModifiedAt = time.Now()

	s.indexFolder(folder)

	return nil
}

func (s *MemoryStore) DeleteFolder(ctx context.Context, id uuid.UUID, recursive bool) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if id == uuid.Nil {
		return fmt.Errorf("cannot delete the root: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}

	if !recursive {
		if folder.SubfolderCount > 0 || folder.FileCount > 0 {
			return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotEmpty)
		}
	}

	s.deleteFolderTree(id)

	s.unindexFolder(folder)
	if parent, ok := s.folders[folder.ParentID]; ok {
		parent.SubfolderCount--
		parent.ModifiedAt = time.Now()
	}

	return nil
}

// deleteFolderTree removes the subtree rooted at id: subfolder records are
// dropped, contained files are soft-deleted so their records (and blobs)
// survive for audit and GC accounting. Callers must hold the write lock.
func (s *MemoryStore) deleteFolderTree(id uuid.UUID) {
	for child := range s.foldersByParent[id] {
		s.deleteFolderTree(child)
	}
	delete(s.foldersByParent, id)

	now := time.Now()
	for fileID := range s.filesByFolder[id] {
		file := s.files[fileID]
		if file.Status != catalog.FileStatusDeleted {
			file.Status = catalog.FileStatusDeleted
			file.ModifiedAt = now
		}
	}

	delete(s.folders, id)
}

func (s *MemoryStore) Breadcrumb(ctx context.Context, id uuid.UUID) ([]*catalog.FolderRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[id]; !ok {
		return nil, fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}

	// Collect leaf-to-root, then reverse so the root comes first.
	var chain []*catalog.FolderRecord
	for cursor := id; cursor != uuid.Nil; {
		folder, ok := s.folders[cursor]
		if !ok {
			break
		}
		chain = append(chain, cloneFolder(folder))
		cursor = folder.ParentID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}

func (s *MemoryStore) SetFolderShared(ctx context.Context, id uuid.UUID, shared bool) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
	}
	folder.Shared = shared
	return nil
}

// indexFolder registers a folder under its parent and bumps the parent's
// subfolder counter. Callers must hold the write lock.
func (s *MemoryStore) indexFolder(folder *catalog.FolderRecord) {
	if s.foldersByParent[folder.ParentID] == nil {
		s.foldersByParent[folder.ParentID] = make(map[uuid.UUID]struct{})
	}
	s.foldersByParent[folder.ParentID][folder.ID] = struct{}{}

	if parent, ok := s.folders[folder.ParentID]; ok {
		parent.SubfolderCount++
		parent.ModifiedAt = time.Now()
	}
}

// unindexFolder removes a folder from its parent's child set without
// touching counters. Callers must hold the write lock.
func (s *MemoryStore) unindexFolder(folder *catalog.FolderRecord) {
	delete(s.foldersByParent[folder.ParentID], folder.ID)
	if len(s.foldersByParent[folder.ParentID]) == 0 {
		delete(s.foldersByParent, folder.ParentID)
	}
}
