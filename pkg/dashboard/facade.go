package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/filedepot/filedepot/pkg/catalog"
	"github.com/filedepot/filedepot/pkg/share"
)

const (
	defaultPageSize  = 50
	statsTopFiles    = 5
	recentUploadSpan = 7 * 24 * time.Hour
)

// Facade composes the catalog and the share engine into the read
// contracts the presentation layer consumes.
type Facade struct {
	catalog catalog.Store
	shares  *share.Engine
}

// NewFacade creates a dashboard facade.
func NewFacade(cat catalog.Store, shares *share.Engine) *Facade {
	return &Facade{
		catalog: cat,
		shares:  shares,
	}
}

// Browse returns one page of a folder's contents after filtering,
// searching and sorting. Folders always precede files in page order.
func (f *Facade) Browse(ctx context.Context, req BrowseRequest) (*BrowseResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.SortBy == "" {
		req.SortBy = SortByName
	}
	if req.SortDirection == "" {
		req.SortDirection = SortAscending
	}

	folders, err := f.catalog.ListFolders(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}
	files, err := f.catalog.ListFiles(ctx, req.FolderID)
	if err != nil {
		return nil, err
	}

	folders = filterFolders(folders, req)
	files = filterFiles(files, req)
	sortFolders(folders, req)
	sortFiles(files, req)

	total := len(folders) + len(files)

	// The page window spans the combined folders-then-files sequence.
	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize

	resp := &BrowseResponse{
		TotalCount:  total,
		Page:        req.Page,
		PageSize:    req.PageSize,
		HasNextPage: req.Page*req.PageSize < total,
	}
	resp.Folders = sliceWindow(folders, start, end)
	resp.Files = sliceWindow(files, start-len(folders), end-len(folders))
	return resp, nil
}

// Stats aggregates an owner's files and grants into dashboard totals.
func (f *Facade) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := f.catalog.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	recentCutoff := time.Now().Add(-recentUploadSpan)
	for _, file := range files {
		stats.TotalFiles++
		stats.TotalBytes += int64(file.Size)
		stats.TotalDownloads += file.DownloadCount
		if file.ModifiedAt.After(recentCutoff) {
			stats.RecentUploads++
		}
	}

	withMe, err := f.shares.SharedWithMe(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats.SharedWithMe = len(withMe)

	byMe, err := f.shares.SharedByMe(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats.SharedByMe = len(byMe)

	popular := append([]*catalog.FileRecord(nil), files...)
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].DownloadCount != popular[j].DownloadCount {
			return popular[i].DownloadCount > popular[j].DownloadCount
		}
		return popular[i].Name < popular[j].Name
	})
	if len(popular) > statsTopFiles {
		popular = popular[:statsTopFiles]
	}
	stats.PopularFiles = popular

	stats.RecentFiles, err = f.catalog.ListRecent(ctx, ownerID, statsTopFiles)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// RecentFiles returns the owner's most recently modified live files.
func (f *Facade) RecentFiles(ctx context.Context, ownerID string, limit int) ([]*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.catalog.ListRecent(ctx, ownerID, limit)
}

// ============================================================================
// Filtering and Sorting
// ============================================================================

func filterFolders(folders []*catalog.FolderRecord, req BrowseRequest) []*catalog.FolderRecord {
	if req.SearchTerm == "" {
		return folders
	}
	term := strings.ToLower(req.SearchTerm)
	kept := folders[:0]
	for _, folder := range folders {
		if strings.Contains(strings.ToLower(folder.Name), term) {
			kept = append(kept, folder)
		}
	}
	return kept
}

func filterFiles(files []*catalog.FileRecord, req BrowseRequest) []*catalog.FileRecord {
	term := strings.ToLower(req.SearchTerm)
	kept := files[:0]
	for _, file := range files {
		if term != "" && !strings.Contains(strings.ToLower(file.Name), term) {
			continue
		}
		if len(req.TypeFilters) > 0 && !matchesType(file.ContentType, req.TypeFilters) {
			continue
		}
		if !req.ModifiedAfter.IsZero() && file.ModifiedAt.Before(req.ModifiedAfter) {
			continue
		}
		if !req.ModifiedBefore.IsZero() && file.ModifiedAt.After(req.ModifiedBefore) {
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

func matchesType(contentType string, filters []string) bool {
	for _, filter := range filters {
		if strings.HasPrefix(contentType, filter) {
			return true
		}
	}
	return false
}

func sortFolders(folders []*catalog.FolderRecord, req BrowseRequest) {
	desc := req.SortDirection == SortDescending
	sort.Slice(folders, func(i, j int) bool {
		a, b := folders[i], folders[j]
		if desc {
			a, b = b, a
		}
		if req.SortBy == SortByModified && !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.Before(b.ModifiedAt)
		}
		return a.Name < b.Name
	})
}

func sortFiles(files []*catalog.FileRecord, req BrowseRequest) {
	desc := req.SortDirection == SortDescending
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if desc {
			a, b = b, a
		}
		switch req.SortBy {
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case SortByModified:
			if !a.ModifiedAt.Equal(b.ModifiedAt) {
				return a.ModifiedAt.Before(b.ModifiedAt)
			}
		case SortByDownloads:
			if a.DownloadCount != b.DownloadCount {
				return a.DownloadCount < b.DownloadCount
			}
		}
		// Name breaks ties so page windows are stable across calls.
		return a.Name < b.Name
	})
}

// sliceWindow returns s[start:end] clamped to valid bounds, nil when the
// window misses the slice entirely.
func sliceWindow[T any](s []T, start, end int) []T {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return nil
	}
	return s[start:end]
}
