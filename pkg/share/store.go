package share

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists permissions and download links.
//
// Implementations must be safe for concurrent use. ConsumeLink is the one
// operation with atomicity requirements beyond plain serialization: two
// racing consumers of a link with one remaining download must see exactly
// one success and one ErrExhausted.
type Store interface {
	// ========================================================================
	// Permissions
	// ========================================================================

	// PutPermission inserts or replaces a grant keyed by its ID.
	PutPermission(ctx context.Context, perm *Permission) error

	// GetPermission returns the grant with the given id, active or not.
	GetPermission(ctx context.Context, id uuid.UUID) (*Permission, error)

	// GetPermissionByToken resolves an external/public grant token.
	GetPermissionByToken(ctx context.Context, token string) (*Permission, error)

	// FindPermission returns the grant for the exact (fileID, folderID,
	// granteeID) combination, active or not. Used for idempotent upserts.
	FindPermission(ctx context.Context, fileID, folderID uuid.UUID, granteeID string) (*Permission, error)

	// ListPermissionsByFile returns every grant on the file.
	ListPermissionsByFile(ctx context.Context, fileID uuid.UUID) ([]*Permission, error)

	// ListPermissionsByFolder returns every grant on the folder.
	ListPermissionsByFolder(ctx context.Context, folderID uuid.UUID) ([]*Permission, error)

	// ListPermissionsByGrantee returns every grant held by the principal.
	ListPermissionsByGrantee(ctx context.Context, granteeID string) ([]*Permission, error)

	// ListPermissionsByCreator returns every grant created by the principal.
	ListPermissionsByCreator(ctx context.Context, creatorID string) ([]*Permission, error)

	// ListPermissions returns all grants. Used by the expiry sweeper.
	ListPermissions(ctx context.Context) ([]*Permission, error)

	// ========================================================================
	// Download Links
	// ========================================================================

	// PutLink inserts or replaces a link keyed by its ID.
	PutLink(ctx context.Context, link *DownloadLink) error

	// GetLink returns the link with the given id.
	GetLink(ctx context.Context, id uuid.UUID) (*DownloadLink, error)

	// GetLinkByToken resolves a link token without consuming it.
	GetLinkByToken(ctx context.Context, token string) (*DownloadLink, error)

	// ConsumeLink atomically validates the link behind token and claims
	// one download from its quota. It returns the link as of after the
	// claim, or ErrLinkNotFound, ErrExpired (expiry checked against now),
	// ErrRevoked, or ErrExhausted. A failed consume never increments.
	ConsumeLink(ctx context.Context, token string, now time.Time) (*DownloadLink, error)

	// ListLinks returns all links. Used by the expiry sweeper.
	ListLinks(ctx context.Context) ([]*DownloadLink, error)

	// Close releases backend resources.
	Close() error
}
