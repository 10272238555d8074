// Package memory implements the share Store using in-memory maps.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/share"
)

// linkEntry wraps a stored link with an atomic consumption counter so
// ConsumeLink can claim quota without holding the store lock exclusively.
type linkEntry struct {
	// mu guards the non-counter fields of link.
	mu   sync.RWMutex
	link share.DownloadLink

	// count is the authoritative download counter. link.DownloadCount is
	// refreshed from it on reads.
	count atomic.Int64
}

func (e *linkEntry) snapshot() *share.DownloadLink {
	e.mu.RLock()
	defer e.mu.RUnlock()
	copied := e.link
	copied.DownloadCount = e.count.Load()
	return &copied
}

// MemoryStore implements share.Store using in-memory storage.
//
// Thread Safety:
// The permission map and the link map are guarded by one RWMutex each.
// Link consumption runs a compare-and-swap loop on the entry's atomic
// counter, so two racing consumers of the last quota unit resolve to
// exactly one winner without write-locking the store.
type MemoryStore struct {
	permMu       sync.RWMutex
	perms        map[uuid.UUID]*share.Permission
	permsByToken map[string]uuid.UUID

	linkMu       sync.RWMutex
	links        map[uuid.UUID]*linkEntry
	linksByToken map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory share store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		perms:        make(map[uuid.UUID]*share.Permission),
		permsByToken: make(map[string]uuid.UUID),
		links:        make(map[uuid.UUID]*linkEntry),
		linksByToken: make(map[string]uuid.UUID),
	}
}

// Close releases nothing for the memory store but satisfies share.Store.
func (s *MemoryStore) Close() error {
	return nil
}

// ============================================================================
// Permissions
// ============================================================================

func (s *MemoryStore) PutPermission(ctx context.Context, perm *share.Permission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if perm.ID == uuid.Nil {
		return fmt.Errorf("permission id is nil: %w", share.ErrInvalidArgument)
	}

	s.permMu.Lock()
	defer s.permMu.Unlock()

	if old, ok := s.perms[perm.ID]; ok && old.Token != "" {
		delete(s.permsByToken, old.Token)
	}

	copied := *perm
	s.perms[perm.ID] = &copied
	if copied.Token != "" {
		s.permsByToken[copied.Token] = copied.ID
	}
	return nil
}

func (s *MemoryStore) GetPermission(ctx context.Context, id uuid.UUID) (*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.permMu.RLock()
	defer s.permMu.RUnlock()

	perm, ok := s.perms[id]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", id, share.ErrPermissionNotFound)
	}
	copied := *perm
	return &copied, nil
}

func (s *MemoryStore) GetPermissionByToken(ctx context.Context, token string) (*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.permMu.RLock()
	defer s.permMu.RUnlock()

	id, ok := s.permsByToken[token]
	if !ok {
		return nil, fmt.Errorf("permission token: %w", share.ErrPermissionNotFound)
	}
	copied := *s.perms[id]
	return &copied, nil
}

func (s *MemoryStore) FindPermission(ctx context.Context, fileID, folderID uuid.UUID, granteeID string) (*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.permMu.RLock()
	defer s.permMu.RUnlock()

	for _, perm := range s.perms {
		if perm.FileID == fileID && perm.FolderID == folderID && perm.GranteeID == granteeID {
			copied := *perm
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("grantee %q: %w", granteeID, share.ErrPermissionNotFound)
}

func (s *MemoryStore) ListPermissionsByFile(ctx context.Context, fileID uuid.UUID) ([]*share.Permission, error) {
	return s.listPermissions(ctx, func(p *share.Permission) bool { return p.FileID == fileID })
}

func (s *MemoryStore) ListPermissionsByFolder(ctx context.Context, folderID uuid.UUID) ([]*share.Permission, error) {
	return s.listPermissions(ctx, func(p *share.Permission) bool {
		return p.FolderID == folderID && p.FolderID != uuid.Nil
	})
}

func (s *MemoryStore) ListPermissionsByGrantee(ctx context.Context, granteeID string) ([]*share.Permission, error) {
	return s.listPermissions(ctx, func(p *share.Permission) bool { return p.GranteeID == granteeID })
}

func (s *MemoryStore) ListPermissionsByCreator(ctx context.Context, creatorID string) ([]*share.Permission, error) {
	return s.listPermissions(ctx, func(p *share.Permission) bool { return p.CreatedBy == creatorID })
}

func (s *MemoryStore) ListPermissions(ctx context.Context) ([]*share.Permission, error) {
	return s.listPermissions(ctx, func(*share.Permission) bool { return true })
}

func (s *MemoryStore) listPermissions(ctx context.Context, keep func(*share.Permission) bool) ([]*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.permMu.RLock()
	defer s.permMu.RUnlock()

	var result []*share.Permission
	for _, perm := range s.perms {
		if keep(perm) {
			copied := *perm
			result = append(result, &copied)
		}
	}
	return result, nil
}

// ============================================================================
// Download Links
// ============================================================================

func (s *MemoryStore) PutLink(ctx context.Context, link *share.DownloadLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if link.ID == uuid.Nil {
		return fmt.Errorf("link id is nil: %w", share.ErrInvalidArgument)
	}

	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	if entry, ok := s.links[link.ID]; ok {
		// Update in place to preserve the counter identity used by
		// in-flight consumers.
		entry.mu.Lock()
		old := entry.link
		entry.link = *link
		entry.count.Store(link.DownloadCount)
		entry.mu.Unlock()
		if old.Token != link.Token {
			delete(s.linksByToken, old.Token)
			s.linksByToken[link.Token] = link.ID
		}
		return nil
	}

	entry := &linkEntry{link: *link}
	entry.count.Store(link.DownloadCount)
	s.links[link.ID] = entry
	s.linksByToken[link.Token] = link.ID
	return nil
}

func (s *MemoryStore) GetLink(ctx context.Context, id uuid.UUID) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.linkMu.RLock()
	entry, ok := s.links[id]
	s.linkMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("link %s: %w", id, share.ErrLinkNotFound)
	}
	return entry.snapshot(), nil
}

func (s *MemoryStore) GetLinkByToken(ctx context.Context, token string) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := s.entryByToken(token)
	if err != nil {
		return nil, err
	}
	return entry.snapshot(), nil
}

// ConsumeLink claims one download from the link's quota.
//
// The quota claim is a compare-and-swap loop on the entry's atomic
// counter: load, check against MaxDownloads, CAS to increment. Exactly one
// of two racing consumers wins the last unit.
func (s *MemoryStore) ConsumeLink(ctx context.Context, token string, now time.Time) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := s.entryByToken(token)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	expired := entry.link.Expired(now)
	active := entry.link.Active
	max := entry.link.MaxDownloads
	id := entry.link.ID
	entry.mu.RUnlock()

	// Expiry is checked before the Active flag so a stale sweeper can
	// never extend access.
	if expired {
		return nil, fmt.Errorf("link %s: %w", id, share.ErrExpired)
	}
	if !active {
		return nil, fmt.Errorf("link %s: %w", id, share.ErrRevoked)
	}

	for {
		current := entry.count.Load()
		if max > 0 && current >= max {
			return nil, fmt.Errorf("link %s: %w", id, share.ErrExhausted)
		}
		if entry.count.CompareAndSwap(current, current+1) {
			break
		}
	}

	return entry.snapshot(), nil
}

func (s *MemoryStore) ListLinks(ctx context.Context) ([]*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.linkMu.RLock()
	defer s.linkMu.RUnlock()

	result := make([]*share.DownloadLink, 0, len(s.links))
	for _, entry := range s.links {
		result = append(result, entry.snapshot())
	}
	return result, nil
}

func (s *MemoryStore) entryByToken(token string) (*linkEntry, error) {
	s.linkMu.RLock()
	defer s.linkMu.RUnlock()

	id, ok := s.linksByToken[token]
	if !ok {
		return nil, fmt.Errorf("link token: %w", share.ErrLinkNotFound)
	}
	return s.links[id], nil
}
