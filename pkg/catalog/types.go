// Package catalog defines the file catalog: the single source of truth for
// file and folder metadata. Binary content lives in a blob store and is
// referenced from here by content hash.
//
// The catalog is defined as an interface (Store) with interchangeable
// backends under catalog/memory and catalog/badger.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/blob"
)

// FileStatus describes the lifecycle state of a catalog file entry.
type FileStatus string

const (
	// FileStatusUploading marks a file whose content is still arriving.
	FileStatusUploading FileStatus = "uploading"

	// FileStatusAvailable marks a file whose content is committed and readable.
	FileStatusAvailable FileStatus = "available"

	// FileStatusProcessing marks a file undergoing post-upload processing.
	FileStatusProcessing FileStatus = "processing"

	// FileStatusError marks a file whose last operation failed.
	FileStatusError FileStatus = "error"

	// FileStatusExpired marks a file past its retention window.
	FileStatusExpired FileStatus = "expired"

	// FileStatusDeleted marks a soft-deleted file. The record is retained
	// for audit; listings skip it.
	FileStatusDeleted FileStatus = "deleted"
)

// FileRecord is the catalog entry for a single file.
//
// The ID is assigned at first commit and never changes: renames, moves and
// new versions all mutate the same record. ContentHash points at the blob
// holding the current version's bytes.
type FileRecord struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	FolderID      uuid.UUID  `json:"folder_id"`
	OwnerID       string     `json:"owner_id"`
	Size          uint64     `json:"size"`
	ContentHash   blob.Hash  `json:"content_hash"`
	ContentType   string     `json:"content_type"`
	Description   string     `json:"description,omitempty"`
	Status        FileStatus `json:"status"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	ModifiedAt    time.Time  `json:"modified_at"`
	Tags          []string   `json:"tags,omitempty"`
	Shared        bool       `json:"shared"`
	DownloadCount int64      `json:"download_count"`
}

// FolderRecord is the catalog entry for a folder.
//
// ParentID is uuid.Nil for folders at the root. FileCount and SubfolderCount
// are maintained by the store and only count live (non-deleted) entries.
type FolderRecord struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ParentID       uuid.UUID `json:"parent_id"`
	OwnerID        string    `json:"owner_id"`
	Description    string    `json:"description,omitempty"`
	FileCount      int       `json:"file_count"`
	SubfolderCount int       `json:"subfolder_count"`
	Shared         bool      `json:"shared"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
}

// VersionCommit carries the inputs for CommitVersion. The (FolderID, Name)
// pair is the file identity: committing against an existing live identity
// produces the next version of that file, otherwise a new file at version 1.
type VersionCommit struct {
	FolderID    uuid.UUID
	Name        string
	OwnerID     string
	Size        uint64
	ContentHash blob.Hash
	ContentType string
	Description string
}
