// Package share implements the sharing and access-token engine: grants on
// files and folders, tokenized download links with quotas, and the
// authorization checks that tie them together.
//
// Grants are never deleted. Revocation flips the Active flag so the audit
// trail (who shared what with whom, and when) survives.
package share

import (
	"time"

	"github.com/google/uuid"
)

// ShareType describes how a grant reaches its audience.
type ShareType string

const (
	// ShareTypeInternal grants access to a known principal in the system.
	ShareTypeInternal ShareType = "internal"

	// ShareTypeExternal grants access to an outside party via token.
	ShareTypeExternal ShareType = "external"

	// ShareTypePublic grants access to anyone holding the token.
	ShareTypePublic ShareType = "public"

	// ShareTypeOrganization grants access to every principal in the org.
	ShareTypeOrganization ShareType = "organization"
)

// PermissionLevel is an ordered capability scale. Higher levels include
// every capability below them.
type PermissionLevel int

const (
	// LevelView allows seeing that the item exists and reading metadata.
	LevelView PermissionLevel = iota + 1

	// LevelDownload additionally allows fetching content.
	LevelDownload

	// LevelEdit additionally allows renaming, moving and new versions.
	LevelEdit

	// LevelAdmin additionally allows managing shares on the item.
	LevelAdmin
)

// String returns the lowercase name of the level.
func (l PermissionLevel) String() string {
	switch l {
	case LevelView:
		return "view"
	case LevelDownload:
		return "download"
	case LevelEdit:
		return "edit"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Covers reports whether the level satisfies the required one.
func (l PermissionLevel) Covers(required PermissionLevel) bool {
	return l >= required
}

// Permission is a grant of access on a file or a folder. Exactly one of
// FileID and FolderID is set; the other is uuid.Nil.
type Permission struct {
	ID           uuid.UUID       `json:"id"`
	FileID       uuid.UUID       `json:"file_id"`
	FolderID     uuid.UUID       `json:"folder_id"`
	GranteeID    string          `json:"grantee_id"`
	GranteeEmail string          `json:"grantee_email,omitempty"`
	Type         ShareType       `json:"type"`
	Level        PermissionLevel `json:"level"`

	// Token authenticates external and public grants. Empty for
	// internal and organization ones.
	Token string `json:"token,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Active is flipped to false on revocation. The row is never deleted.
	Active bool `json:"active"`
}

// Expired reports whether the grant's expiry (if any) has passed.
// Expiry wins over the Active flag: a stale sweeper never extends access.
func (p *Permission) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Usable reports whether the grant currently conveys access.
func (p *Permission) Usable(now time.Time) bool {
	return p.Active && !p.Expired(now)
}

// DownloadLink is a tokenized, quota-bound handle to a single file.
type DownloadLink struct {
	ID     uuid.UUID `json:"id"`
	FileID uuid.UUID `json:"file_id"`
	Token  string    `json:"token"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`

	// ExpiresAt is always set; CreateDownloadLink applies a default and
	// a ceiling.
	ExpiresAt time.Time `json:"expires_at"`

	// MaxDownloads caps total consumptions. 0 means unlimited.
	MaxDownloads int64 `json:"max_downloads"`

	// DownloadCount is the number of successful consumptions so far.
	DownloadCount int64 `json:"download_count"`

	Active bool `json:"active"`

	// RequireAuth demands an authenticated principal on top of the token.
	RequireAuth bool `json:"require_auth"`
}

// Expired reports whether the link's expiry has passed.
func (l *DownloadLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// Exhausted reports whether the download quota is used up. Exhaustion is
// terminal and independent of the Active flag.
func (l *DownloadLink) Exhausted() bool {
	return l.MaxDownloads > 0 && l.DownloadCount >= l.MaxDownloads
}
