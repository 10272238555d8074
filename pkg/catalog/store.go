package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/blob"
)

// Store is the file catalog contract.
//
// Implementations must be safe for concurrent use. All operations respect
// context cancellation. Mutations keep the derived folder counters
// (FileCount, SubfolderCount) consistent.
//
// Soft deletion: DeleteFile flips the record to FileStatusDeleted and keeps
// it. Every read operation except GetFile treats deleted files as absent;
// GetFile returns the record regardless of status so audit tooling can
// inspect it.
type Store interface {
	// ========================================================================
	// Folder Operations
	// ========================================================================

	// CreateFolder creates a folder under parentID (uuid.Nil for the root).
	// Returns ErrAlreadyExists if a sibling folder already carries the name,
	// ErrFolderNotFound if the parent does not exist.
	CreateFolder(ctx context.Context, name string, parentID uuid.UUID, ownerID, description string) (*FolderRecord, error)

	// GetFolder returns the folder with the given id.
	GetFolder(ctx context.Context, id uuid.UUID) (*FolderRecord, error)

	// ListFolders returns the direct subfolders of parentID, sorted by name.
	// parentID uuid.Nil lists root folders.
	ListFolders(ctx context.Context, parentID uuid.UUID) ([]*FolderRecord, error)

	// RenameFolder changes a folder's name in place.
	RenameFolder(ctx context.Context, id uuid.UUID, newName string) error

	// MoveFolder reparents a folder. Returns ErrFolderCycle if newParentID
	// is the folder itself or one of its descendants.
	MoveFolder(ctx context.Context, id uuid.UUID, newParentID uuid.UUID) error

	// DeleteFolder removes a folder. With recursive false it fails with
	// ErrFolderNotEmpty unless the folder has no live files or subfolders.
	// With recursive true it soft-deletes every file in the subtree and
	// removes the folder records.
	DeleteFolder(ctx context.Context, id uuid.UUID, recursive bool) error

	// Breadcrumb returns the chain of folders from the root down to and
	// including the given folder.
	Breadcrumb(ctx context.Context, id uuid.UUID) ([]*FolderRecord, error)

	// SetFolderShared flips the folder's shared flag.
	SetFolderShared(ctx context.Context, id uuid.UUID, shared bool) error

	// ========================================================================
	// File Operations
	// ========================================================================

	// GetFile returns the file with the given id, whatever its status.
	GetFile(ctx context.Context, id uuid.UUID) (*FileRecord, error)

	// FindFileByName returns the live file named name in folderID.
	FindFileByName(ctx context.Context, folderID uuid.UUID, name string) (*FileRecord, error)

	// ListFiles returns the live files in folderID, sorted by name.
	ListFiles(ctx context.Context, folderID uuid.UUID) ([]*FileRecord, error)

	// CommitVersion records a completed upload. If a live file with the
	// commit's (FolderID, Name) identity exists, its version is bumped and
	// its content replaced; otherwise a new file is created at version 1.
	// Either way the file ends up FileStatusAvailable. The version sequence
	// of a file identity is gap-free; callers serialize commits per
	// identity.
	CommitVersion(ctx context.Context, commit VersionCommit) (*FileRecord, error)

	// RenameFile changes a file's name. Returns ErrAlreadyExists if the
	// folder already holds a live entry with newName.
	RenameFile(ctx context.Context, id uuid.UUID, newName string) error

	// MoveFile moves a file to another folder, adjusting both folders'
	// counters.
	MoveFile(ctx context.Context, id uuid.UUID, newFolderID uuid.UUID) error

	// DeleteFile soft-deletes a file. Deleting an already deleted file is
	// a no-op.
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// SetFileStatus transitions a file's lifecycle status.
	SetFileStatus(ctx context.Context, id uuid.UUID, status FileStatus) error

	// IncrementDownloadCount bumps the file's download counter by one.
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) error

	// UpdateTags replaces the file's tag set.
	UpdateTags(ctx context.Context, id uuid.UUID, tags []string) error

	// SetFileShared flips the file's shared flag.
	SetFileShared(ctx context.Context, id uuid.UUID, shared bool) error

	// ========================================================================
	// Query Operations
	// ========================================================================

	// ListByOwner returns every live file owned by ownerID.
	ListByOwner(ctx context.Context, ownerID string) ([]*FileRecord, error)

	// ListRecent returns up to limit live files sorted by ModifiedAt
	// descending. An empty ownerID matches all owners.
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*FileRecord, error)

	// AllContentHashes returns the content hashes referenced by any file
	// record, deleted ones included. Deleted records still pin their
	// blobs until the record itself is purged, so garbage collection must
	// see them.
	AllContentHashes(ctx context.Context) (map[blob.Hash]struct{}, error)

	// Close releases backend resources. The store is unusable afterwards.
	Close() error
}
