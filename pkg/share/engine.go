package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/google/uuid"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
	"github.com/filedepot/filedepot/pkg/metrics"
)

// ErrNotAvailable indicates the file's content is not in a downloadable
// state (still uploading, processing, or errored).
var ErrNotAvailable = errors.New("file content not available")

// EngineConfig tunes the share engine.
type EngineConfig struct {
	// DefaultLinkTTL is applied when CreateDownloadLink gets no expiry
	// (default: 24h).
	DefaultLinkTTL time.Duration `mapstructure:"default_link_ttl"`

	// MaxLinkTTL caps any requested expiry (default: 7 days).
	MaxLinkTTL time.Duration `mapstructure:"max_link_ttl"`

	// AuthCacheTTL bounds how long Authorize may serve a cached decision.
	// Revocations propagate within this window (default: 5s).
	AuthCacheTTL time.Duration `mapstructure:"auth_cache_ttl"`
}

// authDecision is the cached outcome of an Authorize call. A pointer type
// so the TTL cache's zero value distinguishes "absent" from "denied".
type authDecision struct {
	allowed bool
}

// Engine implements sharing and authorization on top of a share Store and
// the file catalog.
//
// Authorization always re-checks live state; the TTL cache only absorbs
// bursts, and its TTL is the upper bound on revocation propagation delay.
type Engine struct {
	store   Store
	catalog catalog.Store
	blobs   blob.Store
	config  EngineConfig
	metrics metrics.ShareMetrics

	authCache *ttlworker.Cache[string, *authDecision]
}

// NewEngine creates a share engine. Zero config fields get defaults; a nil
// ShareMetrics disables instrumentation. A nil blob store disables content
// verification on consume and makes OpenDownload unavailable.
func NewEngine(store Store, cat catalog.Store, blobs blob.Store, config EngineConfig, m metrics.ShareMetrics) *Engine {
	if config.DefaultLinkTTL <= 0 {
		config.DefaultLinkTTL = 24 * time.Hour
	}
	if config.MaxLinkTTL <= 0 {
		config.MaxLinkTTL = 7 * 24 * time.Hour
	}
	if config.AuthCacheTTL <= 0 {
		config.AuthCacheTTL = 5 * time.Second
	}
	if m == nil {
		m = metrics.NewNoopShareMetrics()
	}

	return &Engine{
		store:     store,
		catalog:   cat,
		blobs:     blobs,
		config:    config,
		metrics:   m,
		authCache: ttlworker.NewCache[string, *authDecision](config.AuthCacheTTL),
	}
}

// ShareRequest carries the inputs for ShareTarget. Exactly one of FileID
// and FolderID must be set.
type ShareRequest struct {
	FileID       uuid.UUID
	FolderID     uuid.UUID
	GranteeID    string
	GranteeEmail string
	Type         ShareType
	Level        PermissionLevel
	ExpiresAt    *time.Time
	CreatedBy    string
}

// ShareTarget grants access to a file or folder. The operation is an
// idempotent upsert per (target, grantee): sharing the same target with
// the same grantee again updates the existing row instead of stacking a
// second grant, preserving the original CreatedAt for audit.
func (e *Engine) ShareTarget(ctx context.Context, req ShareRequest) (*Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if (req.FileID == uuid.Nil) == (req.FolderID == uuid.Nil) {
		return nil, fmt.Errorf("exactly one of file and folder must be set: %w", ErrInvalidArgument)
	}
	if req.Level < LevelView || req.Level > LevelAdmin {
		return nil, fmt.Errorf("level %d: %w", req.Level, ErrInvalidArgument)
	}
	if req.GranteeID == "" && req.Type != ShareTypePublic {
		return nil, fmt.Errorf("grantee is required for %s shares: %w", req.Type, ErrInvalidArgument)
	}

	if err := e.checkTarget(ctx, req.FileID, req.FolderID); err != nil {
		return nil, err
	}

	now := time.Now()

	existing, err := e.store.FindPermission(ctx, req.FileID, req.FolderID, req.GranteeID)
	if err == nil {
		existing.Type = req.Type
		existing.Level = req.Level
		existing.ExpiresAt = req.ExpiresAt
		existing.GranteeEmail = req.GranteeEmail
		existing.Active = true
		// Upgrading an internal grant to a tokenized kind must mint the
		// token the grant is reached by.
		if (req.Type == ShareTypeExternal || req.Type == ShareTypePublic) && existing.Token == "" {
			token, err := NewToken()
			if err != nil {
				return nil, err
			}
			existing.Token = token
		}
		if err := e.store.PutPermission(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, ErrPermissionNotFound) {
		return nil, err
	}

	perm := &Permission{
		ID:           uuid.New(),
		FileID:       req.FileID,
		FolderID:     req.FolderID,
		GranteeID:    req.GranteeID,
		GranteeEmail: req.GranteeEmail,
		Type:         req.Type,
		Level:        req.Level,
		CreatedAt:    now,
		CreatedBy:    req.CreatedBy,
		ExpiresAt:    req.ExpiresAt,
		Active:       true,
	}

	// External and public grants are reached by token.
	if req.Type == ShareTypeExternal || req.Type == ShareTypePublic {
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		perm.Token = token
	}

	if err := e.store.PutPermission(ctx, perm); err != nil {
		return nil, err
	}
	e.metrics.RecordShareCreated(string(req.Type))

	if err := e.markShared(ctx, req.FileID, req.FolderID, true); err != nil {
		logger.Warn("failed to mark target shared: %v", err)
	}

	return perm, nil
}

// RevokeShare deactivates a grant. The row is kept for audit; the grant
// just stops conveying access. Revoking an already revoked grant is a
// no-op.
func (e *Engine) RevokeShare(ctx context.Context, shareID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	perm, err := e.store.GetPermission(ctx, shareID)
	if err != nil {
		return err
	}
	if !perm.Active {
		return nil
	}

	perm.Active = false
	if err := e.store.PutPermission(ctx, perm); err != nil {
		return err
	}
	e.metrics.RecordShareRevoked()

	if err := e.refreshSharedFlag(ctx, perm.FileID, perm.FolderID); err != nil {
		logger.Warn("failed to refresh shared flag: %v", err)
	}
	return nil
}

// UpdateShare changes the level and expiry of an existing grant in place,
// preserving its identity and creation audit fields.
func (e *Engine) UpdateShare(ctx context.Context, shareID uuid.UUID, level PermissionLevel, expiresAt *time.Time) (*Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if level < LevelView || level > LevelAdmin {
		return nil, fmt.Errorf("level %d: %w", level, ErrInvalidArgument)
	}

	perm, err := e.store.GetPermission(ctx, shareID)
	if err != nil {
		return nil, err
	}

	perm.Level = level
	perm.ExpiresAt = expiresAt
	if err := e.store.PutPermission(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

// Authorize decides whether the principal may act on the file at the
// required level. Owners are always allowed. Grants are checked on the
// file itself, then on every folder up the file's ancestry.
//
// Decisions are cached for EngineConfig.AuthCacheTTL at most; within that
// window a just-revoked grant may still be honored.
func (e *Engine) Authorize(ctx context.Context, principalID string, fileID uuid.UUID, required PermissionLevel) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if principalID == "" {
		return false, fmt.Errorf("principal is empty: %w", ErrInvalidArgument)
	}

	cacheKey := fmt.Sprintf("%s|%s|%d", principalID, fileID, required)
	if cached := e.authCache.Get(cacheKey); cached != nil {
		return cached.allowed, nil
	}

	allowed, err := e.authorize(ctx, principalID, fileID, required)
	if err != nil {
		return false, err
	}
	if allowed {
		e.metrics.RecordAuthorization("allowed")
	} else {
		e.metrics.RecordAuthorization("denied")
	}

	e.authCache.Set(cacheKey, &authDecision{allowed: allowed})
	return allowed, nil
}

func (e *Engine) authorize(ctx context.Context, principalID string, fileID uuid.UUID, required PermissionLevel) (bool, error) {
	file, err := e.catalog.GetFile(ctx, fileID)
	if err != nil {
		return false, err
	}
	if file.Status == catalog.FileStatusDeleted {
		return false, fmt.Errorf("file %s: %w", fileID, catalog.ErrFileNotFound)
	}

	if file.OwnerID == principalID {
		return true, nil
	}

	now := time.Now()

	perms, err := e.store.ListPermissionsByFile(ctx, fileID)
	if err != nil {
		return false, err
	}
	if grantCovers(perms, principalID, required, now) {
		return true, nil
	}

	// Folder grants cascade down to everything inside.
	if file.FolderID != uuid.Nil {
		crumb, err := e.catalog.Breadcrumb(ctx, file.FolderID)
		if err != nil {
			return false, err
		}
		for _, folder := range crumb {
			folderPerms, err := e.store.ListPermissionsByFolder(ctx, folder.ID)
			if err != nil {
				return false, err
			}
			if grantCovers(folderPerms, principalID, required, now) {
				return true, nil
			}
		}
	}

	return false, nil
}

// grantCovers reports whether any usable grant in perms gives principalID
// the required level. Organization grants apply to every principal.
func grantCovers(perms []*Permission, principalID string, required PermissionLevel, now time.Time) bool {
	for _, perm := range perms {
		if !perm.Usable(now) || !perm.Level.Covers(required) {
			continue
		}
		if perm.GranteeID == principalID || perm.Type == ShareTypeOrganization {
			return true
		}
	}
	return false
}

// AuthorizeToken validates an external or public grant token at the
// required level, re-checking expiry and revocation live.
func (e *Engine) AuthorizeToken(ctx context.Context, token string, required PermissionLevel) (*Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perm, err := e.store.GetPermissionByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if perm.Expired(now) {
		return nil, fmt.Errorf("permission %s: %w", perm.ID, ErrExpired)
	}
	if !perm.Active {
		return nil, fmt.Errorf("permission %s: %w", perm.ID, ErrRevoked)
	}
	if !perm.Level.Covers(required) {
		return nil, fmt.Errorf("permission %s grants %s: %w", perm.ID, perm.Level, ErrAccessDenied)
	}
	return perm, nil
}

// LinkOptions tunes CreateDownloadLink. The zero value produces a link
// with the default TTL, unlimited downloads and no auth requirement.
type LinkOptions struct {
	// TTL overrides the default expiry. It is capped at MaxLinkTTL.
	TTL time.Duration

	// MaxDownloads caps total consumptions. 0 means unlimited.
	MaxDownloads int64

	// RequireAuth demands an authenticated principal on top of the token.
	RequireAuth bool
}

// CreateDownloadLink mints a tokenized download handle for a file. Every
// link expires: a missing TTL gets the default, an excessive one is capped.
func (e *Engine) CreateDownloadLink(ctx context.Context, fileID uuid.UUID, createdBy string, opts LinkOptions) (*DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := e.catalog.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status != catalog.FileStatusAvailable {
		return nil, fmt.Errorf("file %s is %s: %w", fileID, file.Status, ErrNotAvailable)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = e.config.DefaultLinkTTL
	}
	if ttl > e.config.MaxLinkTTL {
		ttl = e.config.MaxLinkTTL
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := &DownloadLink{
		ID:           uuid.New(),
		FileID:       fileID,
		Token:        token,
		CreatedAt:    now,
		CreatedBy:    createdBy,
		ExpiresAt:    now.Add(ttl),
		MaxDownloads: opts.MaxDownloads,
		Active:       true,
		RequireAuth:  opts.RequireAuth,
	}

	if err := e.store.PutLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// RevokeDownloadLink deactivates a link. Idempotent.
func (e *Engine) RevokeDownloadLink(ctx context.Context, linkID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link, err := e.store.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if !link.Active {
		return nil
	}

	link.Active = false
	return e.store.PutLink(ctx, link)
}

// ConsumeDownloadLink atomically claims one download from the link behind
// the token and returns the file record to serve. The target is resolved
// before the claim so a quota unit is never spent on content that cannot
// be served. The download counter on the file is best-effort; the quota on
// the link is not.
func (e *Engine) ConsumeDownloadLink(ctx context.Context, token string) (*DownloadLink, *catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	preview, err := e.store.GetLinkByToken(ctx, token)
	if err != nil {
		e.metrics.RecordLinkConsumed(consumeOutcome(err))
		return nil, nil, err
	}

	file, err := e.catalog.GetFile(ctx, preview.FileID)
	if err != nil {
		e.metrics.RecordLinkConsumed("error")
		return nil, nil, err
	}
	if file.Status != catalog.FileStatusAvailable {
		e.metrics.RecordLinkConsumed("not_available")
		return nil, nil, fmt.Errorf("file %s is %s: %w", file.ID, file.Status, ErrNotAvailable)
	}
	if e.blobs != nil {
		exists, err := e.blobs.Exists(ctx, file.ContentHash)
		if err != nil {
			e.metrics.RecordLinkConsumed("error")
			return nil, nil, err
		}
		if !exists {
			e.metrics.RecordLinkConsumed("not_available")
			return nil, nil, fmt.Errorf("content %s missing for file %s: %w", file.ContentHash, file.ID, ErrNotAvailable)
		}
	}

	link, err := e.store.ConsumeLink(ctx, token, time.Now())
	if err != nil {
		e.metrics.RecordLinkConsumed(consumeOutcome(err))
		return nil, nil, err
	}
	e.metrics.RecordLinkConsumed("ok")

	if err := e.catalog.IncrementDownloadCount(ctx, link.FileID); err != nil {
		logger.Warn("failed to bump download count for %s: %v", link.FileID, err)
	}

	return link, file, nil
}

// OpenDownload consumes one download from the link behind the token and
// opens the content for streaming. The caller must close the reader.
func (e *Engine) OpenDownload(ctx context.Context, token string) (io.ReadCloser, *catalog.FileRecord, error) {
	if e.blobs == nil {
		return nil, nil, fmt.Errorf("no content store configured: %w", ErrNotAvailable)
	}

	_, file, err := e.ConsumeDownloadLink(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	rc, err := e.blobs.Open(ctx, file.ContentHash)
	if err != nil {
		return nil, nil, err
	}
	return rc, file, nil
}

// CreatePublicShare mints a public grant and a download link for a file in
// one call.
func (e *Engine) CreatePublicShare(ctx context.Context, fileID uuid.UUID, createdBy string, ttl time.Duration, maxDownloads int64) (*Permission, *DownloadLink, error) {
	perm, err := e.ShareTarget(ctx, ShareRequest{
		FileID:    fileID,
		Type:      ShareTypePublic,
		Level:     LevelDownload,
		CreatedBy: createdBy,
		ExpiresAt: expiryFromTTL(ttl),
	})
	if err != nil {
		return nil, nil, err
	}

	link, err := e.CreateDownloadLink(ctx, fileID, createdBy, LinkOptions{
		TTL:          ttl,
		MaxDownloads: maxDownloads,
	})
	if err != nil {
		return nil, nil, err
	}

	return perm, link, nil
}

// SharedWithMe returns the usable grants held by the principal.
func (e *Engine) SharedWithMe(ctx context.Context, principalID string) ([]*Permission, error) {
	perms, err := e.store.ListPermissionsByGrantee(ctx, principalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	usable := perms[:0]
	for _, perm := range perms {
		if perm.Usable(now) {
			usable = append(usable, perm)
		}
	}
	return usable, nil
}

// SharedByMe returns the usable grants the principal created. Revoked and
// expired rows are filtered out, same as SharedWithMe; per-target audit
// views are SharesForFile and SharesForFolder.
func (e *Engine) SharedByMe(ctx context.Context, principalID string) ([]*Permission, error) {
	perms, err := e.store.ListPermissionsByCreator(ctx, principalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	usable := perms[:0]
	for _, perm := range perms {
		if perm.Usable(now) {
			usable = append(usable, perm)
		}
	}
	return usable, nil
}

// SharesForFile returns every grant on the file, active or not.
func (e *Engine) SharesForFile(ctx context.Context, fileID uuid.UUID) ([]*Permission, error) {
	return e.store.ListPermissionsByFile(ctx, fileID)
}

// SharesForFolder returns every grant on the folder, active or not.
func (e *Engine) SharesForFolder(ctx context.Context, folderID uuid.UUID) ([]*Permission, error) {
	return e.store.ListPermissionsByFolder(ctx, folderID)
}

// checkTarget verifies the share target exists and is live.
func (e *Engine) checkTarget(ctx context.Context, fileID, folderID uuid.UUID) error {
	if fileID != uuid.Nil {
		file, err := e.catalog.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if file.Status == catalog.FileStatusDeleted {
			return fmt.Errorf("file %s: %w", fileID, catalog.ErrFileNotFound)
		}
		return nil
	}
	_, err := e.catalog.GetFolder(ctx, folderID)
	return err
}

// markShared flips the catalog's shared flag on the target.
func (e *Engine) markShared(ctx context.Context, fileID, folderID uuid.UUID, shared bool) error {
	if fileID != uuid.Nil {
		return e.catalog.SetFileShared(ctx, fileID, shared)
	}
	return e.catalog.SetFolderShared(ctx, folderID, shared)
}

// refreshSharedFlag recomputes the target's shared flag from its remaining
// usable grants.
func (e *Engine) refreshSharedFlag(ctx context.Context, fileID, folderID uuid.UUID) error {
	var perms []*Permission
	var err error
	if fileID != uuid.Nil {
		perms, err = e.store.ListPermissionsByFile(ctx, fileID)
	} else {
		perms, err = e.store.ListPermissionsByFolder(ctx, folderID)
	}
	if err != nil {
		return err
	}

	now := time.Now()
	shared := false
	for _, perm := range perms {
		if perm.Usable(now) {
			shared = true
			break
		}
	}
	return e.markShared(ctx, fileID, folderID, shared)
}

// consumeOutcome maps a ConsumeLink error to its metrics label.
func consumeOutcome(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrRevoked):
		return "revoked"
	case errors.Is(err, ErrLinkNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	default:
		return "error"
	}
}

// expiryFromTTL converts a TTL into an absolute expiry pointer, nil for
// non-positive TTLs.
func expiryFromTTL(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl)
	return &t
}
