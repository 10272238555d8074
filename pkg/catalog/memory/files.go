package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
)

func (s *MemoryStore) GetFile(ctx context.Context, id uuid.UUID) (*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	return cloneFile(file), nil
}

func (s *MemoryStore) FindFileByName(ctx context.Context, folderID uuid.UUID, name string) (*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file := s.findLiveByName(folderID, name)
	if file == nil {
		return nil, fmt.Errorf("file %q in %s: %w", name, folderID, catalog.ErrFileNotFound)
	}
	return cloneFile(file), nil
}

func (s *MemoryStore) ListFiles(ctx context.Context, folderID uuid.UUID) ([]*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.folderExists(folderID) {
		return nil, fmt.Errorf("folder %s: %w", folderID, catalog.ErrFolderNotFound)
	}

	result := make([]*catalog.FileRecord, 0, len(s.filesByFolder[folderID]))
	for id := range s.filesByFolder[folderID] {
		file := s.files[id]
		if file.Status == catalog.FileStatusDeleted {
			continue
		}
		result = append(result, cloneFile(file))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// CommitVersion records a completed upload as a new file or a new version
// of an existing file identity. Callers serialize commits per identity;
// the store lock alone already makes each commit atomic.
func (s *MemoryStore) CommitVersion(ctx context.Context, commit catalog.VersionCommit) (*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if commit.Name == "" {
		return nil, fmt.Errorf("file name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.folderExists(commit.FolderID) {
		return nil, fmt.Errorf("folder %s: %w", commit.FolderID, catalog.ErrFolderNotFound)
	}

	now := time.Now()

	if existing := s.findLiveByName(commit.FolderID, commit.Name); existing != nil {
		existing.Version++
		existing.Size = commit.Size
		existing.ContentHash = commit.ContentHash
		existing.ContentType = commit.ContentType
		if commit.Description != "" {
			existing.Description = commit.Description
		}
		existing.Status = catalog.FileStatusAvailable
		existing.ModifiedAt = now
		return cloneFile(existing), nil
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

	s.files[file.ID] = file
	s.indexFile(file)

	return cloneFile(file), nil
}

func (s *MemoryStore) RenameFile(ctx context.Context, id uuid.UUID, newName string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if newName == "" {
		return fmt.Errorf("file name is empty: %w", catalog.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.Status == catalog.FileStatusDeleted {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}

	if other := s.findLiveByName(file.FolderID, newName); other != nil && other.ID != id {
		return fmt.Errorf("file %q: %w", newName, catalog.ErrAlreadyExists)
	}

	file.Name = newName
	file.ModifiedAt = time.Now()
	return nil
}

func (s *MemoryStore) MoveFile(ctx context.Context, id uuid.UUID, newFolderID uuid.UUID) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.Status == catalog.FileStatusDeleted {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	if !s.folderExists(newFolderID) {
		return fmt.Errorf("folder %s: %w", newFolderID, catalog.ErrFolderNotFound)
	}
	if newFolderID == file.FolderID {
		return nil
	}
	if other := s.findLiveByName(newFolderID, file.Name); other != nil {
		return fmt.Errorf("file %q: %w", file.Name, catalog.ErrAlreadyExists)
	}

	s.unindexFile(file)
	file.FolderID = newFolderID
	file.ModifiedAt = time.Now()
	s.indexFile(file)

	return nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	if file.Status == catalog.FileStatusDeleted {
		return nil
	}

	file.Status = catalog.FileStatusDeleted
	file.ModifiedAt = time.Now()

	if folder, ok := s.folders[file.FolderID]; ok {
		folder.FileCount--
		folder.ModifiedAt = time.Now()
	}

	return nil
}

func (s *MemoryStore) SetFileStatus(ctx context.Context, id uuid.UUID, status catalog.FileStatus) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	file.Status = status
	file.ModifiedAt = time.Now()
	return nil
}

func (s *MemoryStore) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.Status == catalog.FileStatusDeleted {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	file.DownloadCount++
	return nil
}

func (s *MemoryStore) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.Status == catalog.FileStatusDeleted {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	file.Tags = append([]string(nil), tags...)
	file.ModifiedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetFileShared(ctx context.Context, id uuid.UUID, shared bool) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.Status == catalog.FileStatusDeleted {
		return fmt.Errorf("file %s: %w", id, catalog.ErrFileNotFound)
	}
	file.Shared = shared
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*catalog.FileRecord
	for _, file := range s.files {
		if file.Status == catalog.FileStatusDeleted || file.OwnerID != ownerID {
			continue
		}
		result = append(result, cloneFile(file))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, ownerID string, limit int) ([]*catalog.FileRecord, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*catalog.FileRecord
	for _, file := range s.files {
		if file.Status == catalog.FileStatusDeleted {
			continue
		}
		if ownerID != "" && file.OwnerID != ownerID {
			continue
		}
		result = append(result, cloneFile(file))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ModifiedAt.After(result[j].ModifiedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) AllContentHashes(ctx context.Context) (map[blob.Hash]struct{}, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make(map[blob.Hash]struct{}, len(s.files))
	for _, file := range s.files {
		if file.ContentHash != "" {
			hashes[file.ContentHash] = struct{}{}
		}
	}
	return hashes, nil
}

// findLiveByName looks up the non-deleted file named name in folderID.
// Callers must hold at least a read lock.
func (s *MemoryStore) findLiveByName(folderID uuid.UUID, name string) *catalog.FileRecord {
	for id := range s.filesByFolder[folderID] {
		file := s.files[id]
		if file.Name == name && file.Status != catalog.FileStatusDeleted {
			return file
		}
	}
	return nil
}

// indexFile registers a file under its folder and bumps the folder's file
// counter. Callers must hold the write lock.
func (s *MemoryStore) indexFile(file *catalog.FileRecord) {
	if s.filesByFolder[file.FolderID] == nil {
		s.filesByFolder[file.FolderID] = make(map[uuid.UUID]struct{})
	}
	s.filesByFolder[file.FolderID][file.ID] = struct{}{}

	if folder, ok := s.folders[file.FolderID]; ok {
		folder.FileCount++
		folder.ModifiedAt = time.Now()
	}
}

// unindexFile removes a file from its folder's set and decrements the
// folder's file counter. Callers must hold the write lock.
func (s *MemoryStore) unindexFile(file *catalog.FileRecord) {
	delete(s.filesByFolder[file.FolderID], file.ID)
	if len(s.filesByFolder[file.FolderID]) == 0 {
		delete(s.filesByFolder, file.FolderID)
	}
	if folder, ok := s.folders[file.FolderID]; ok {
		folder.FileCount--
	}
}
