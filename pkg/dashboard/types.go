// Package dashboard is the read-only query facade over the catalog and
// the share engine: paged folder browsing, account statistics, and recent
// file listings. It never mutates anything.
package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// SortField selects the file ordering for Browse.
type SortField string

const (
	SortByName      SortField = "name"
	SortBySize      SortField = "size"
	SortByModified  SortField = "modified"
	SortByDownloads SortField = "downloads"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// BrowseRequest describes one page of a folder listing.
type BrowseRequest struct {
	// FolderID is the folder to list; uuid.Nil lists the root.
	FolderID uuid.UUID

	// SearchTerm filters entries by case-insensitive name substring.
	// Empty matches everything.
	SearchTerm string

	// Page is 1-based. Values below 1 are treated as 1.
	Page int

	// PageSize defaults to 50 when not positive.
	PageSize int

	// SortBy defaults to SortByName; SortDirection to SortAscending.
	SortBy        SortField
	SortDirection SortDirection

	// TypeFilters keeps only files whose content type has one of these
	// prefixes (e.g. "image/", "application/pdf"). Empty keeps all.
	TypeFilters []string

	// ModifiedAfter / ModifiedBefore bound the file modification time.
	// Zero values disable the bound.
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
}

// BrowseResponse is one page of entries. Folders sort before files and
// both honor the requested ordering.
type BrowseResponse struct {
	Folders []*catalog.FolderRecord
	Files   []*catalog.FileRecord

	// TotalCount counts every matching entry across all pages.
	TotalCount int

	Page     int
	PageSize int

	// HasNextPage is true while Page*PageSize < TotalCount.
	HasNextPage bool
}

// Stats aggregates one owner's account for the dashboard landing view.
type Stats struct {
	TotalFiles     int
	TotalBytes     int64
	TotalDownloads int64

	// RecentUploads counts files modified within the last 7 days.
	RecentUploads int

	// SharedWithMe / SharedByMe count currently usable grants.
	SharedWithMe int
	SharedByMe   int

	// PopularFiles are the owner's most downloaded files, best first.
	PopularFiles []*catalog.FileRecord

	// RecentFiles are the owner's most recently modified files.
	RecentFiles []*catalog.FileRecord
}
