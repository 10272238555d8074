package catalog

import "errors"

// ============================================================================
// Standard Catalog Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all catalog implementations. Callers should check for them with
// errors.Is; implementations wrap them with additional context:
//
//	if !exists {
//	    return fmt.Errorf("folder %s: %w", id, catalog.ErrFolderNotFound)
//	}

var (
	// ErrFileNotFound indicates the requested file does not exist or is
	// soft-deleted. Read operations treat deleted files as absent.
	ErrFileNotFound = errors.New("file not found")

	// ErrFolderNotFound indicates the requested folder does not exist.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrAlreadyExists indicates a live entry with the same name already
	// exists in the target folder.
	ErrAlreadyExists = errors.New("name already exists in folder")

	// ErrFolderCycle indicates a folder move that would make the folder
	// its own ancestor.
	ErrFolderCycle = errors.New("folder move would create a cycle")

	// ErrFolderNotEmpty indicates a non-recursive delete of a folder that
	// still contains live files or subfolders.
	ErrFolderNotEmpty = errors.New("folder is not empty")

	// ErrInvalidArgument indicates a structurally invalid input, such as
	// an empty name or a nil file id.
	ErrInvalidArgument = errors.New("invalid argument")
)
