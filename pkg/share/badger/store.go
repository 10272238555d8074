// Package badger implements the share Store on BadgerDB.
//
// Key Namespace Prefixes:
//
// Record Type          Prefix   Key Format            Value Type
// =================================================================
// Permission Data      "g:"     g:<permUUID>          Permission (JSON)
// Permission Token     "gt:"    gt:<token>            permUUID (bytes)
// Link Data            "k:"     k:<linkUUID>          DownloadLink (JSON)
// Link Token           "kt:"    kt:<token>            linkUUID (bytes)
//
// Tokens are unique, so the token indexes are plain point lookups.
// ConsumeLink runs as a read-modify-write transaction; BadgerDB detects
// write conflicts between racing consumers, and the loser retries against
// the committed counter, so the quota can never be over-claimed.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/share"
)

const (
	prefixPerm      = "g:"
	prefixPermToken = "gt:"
	prefixLink      = "k:"
	prefixLinkToken = "kt:"
)

func keyPerm(id uuid.UUID) []byte      { return []byte(prefixPerm + id.String()) }
func keyPermToken(token string) []byte { return []byte(prefixPermToken + token) }
func keyLink(id uuid.UUID) []byte      { return []byte(prefixLink + id.String()) }
func keyLinkToken(token string) []byte { return []byte(prefixLinkToken + token) }

// consumeRetries bounds the conflict-retry loop in ConsumeLink.
const consumeRetries = 16

// BadgerStore implements share.Store using BadgerDB for persistence.
type BadgerStore struct {
	db *badger.DB
}

// BadgerStoreConfig contains configuration for creating a BadgerDB share store.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// BadgerOptions allows customization of BadgerDB behavior.
	// If nil, sensible defaults are used.
	BadgerOptions *badger.Options
}

// NewBadgerStore opens (or creates) a BadgerDB share store at the
// configured path.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions(config.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Permissions
// ============================================================================

func (s *BadgerStore) PutPermission(ctx context.Context, perm *share.Permission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if perm.ID == uuid.Nil {
		return fmt.Errorf("permission id is nil: %w", share.ErrInvalidArgument)
	}

	encoded, err := json.Marshal(perm)
	if err != nil {
		return fmt.Errorf("failed to encode permission: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Drop a superseded token index entry.
		if item, err := txn.Get(keyPerm(perm.ID)); err == nil {
			var old share.Permission
			err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) })
			if err == nil && old.Token != "" && old.Token != perm.Token {
				if err := txn.Delete(keyPermToken(old.Token)); err != nil {
					return fmt.Errorf("failed to drop token index: %w", err)
				}
			}
		}

		if err := txn.Set(keyPerm(perm.ID), encoded); err != nil {
			return fmt.Errorf("failed to store permission: %w", err)
		}
		if perm.Token != "" {
			if err := txn.Set(keyPermToken(perm.Token), []byte(perm.ID.String())); err != nil {
				return fmt.Errorf("failed to index token: %w", err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) GetPermission(ctx context.Context, id uuid.UUID) (*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var perm *share.Permission
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		perm, err = getPermTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *BadgerStore) GetPermissionByToken(ctx context.Context, token string) (*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var perm *share.Permission
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPermToken(token))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("permission token: %w", share.ErrPermissionNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to look up token: %w", err)
		}

		var id uuid.UUID
		err = item.Value(func(val []byte) error {
			parsed, err := uuid.Parse(string(val))
			if err != nil {
				return fmt.Errorf("failed to decode uuid: %w", err)
			}
			id = parsed
			return nil
		})
		if err != nil {
			return err
		}

		perm, err = getPermTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *BadgerStore) FindPermission(ctx context.Context, fileID, folderID uuid.UUID, granteeID string) (*share.Permission, error) {
	perms, err := s.scanPermissions(ctx, func(p *share.Permission) bool {
		return p.FileID == fileID && p.FolderID == folderID && p.GranteeID == granteeID
	})
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("grantee %q: %w", granteeID, share.ErrPermissionNotFound)
	}
	return perms[0], nil
}

func (s *BadgerStore) ListPermissionsByFile(ctx context.Context, fileID uuid.UUID) ([]*share.Permission, error) {
	return s.scanPermissions(ctx, func(p *share.Permission) bool { return p.FileID == fileID })
}

func (s *BadgerStore) ListPermissionsByFolder(ctx context.Context, folderID uuid.UUID) ([]*share.Permission, error) {
	return s.scanPermissions(ctx, func(p *share.Permission) bool {
		return p.FolderID == folderID && p.FolderID != uuid.Nil
	})
}

func (s *BadgerStore) ListPermissionsByGrantee(ctx context.Context, granteeID string) ([]*share.Permission, error) {
	return s.scanPermissions(ctx, func(p *share.Permission) bool { return p.GranteeID == granteeID })
}

func (s *BadgerStore) ListPermissionsByCreator(ctx context.Context, creatorID string) ([]*share.Permission, error) {
	return s.scanPermissions(ctx, func(p *share.Permission) bool { return p.CreatedBy == creatorID })
}

func (s *BadgerStore) ListPermissions(ctx context.Context) ([]*share.Permission, error) {
	return s.scanPermissions(ctx, func(*share.Permission) bool { return true })
}

func (s *BadgerStore) scanPermissions(ctx context.Context, keep func(*share.Permission) bool) ([]*share.Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*share.Permission
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPerm)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var perm share.Permission
				if err := json.Unmarshal(val, &perm); err != nil {
					return fmt.Errorf("failed to decode permission: %w", err)
				}
				if keep(&perm) {
					result = append(result, &perm)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Download Links
// ============================================================================

func (s *BadgerStore) PutLink(ctx context.Context, link *share.DownloadLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if link.ID == uuid.Nil {
		return fmt.Errorf("link id is nil: %w", share.ErrInvalidArgument)
	}

	encoded, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to encode link: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyLink(link.ID), encoded); err != nil {
			return fmt.Errorf("failed to store link: %w", err)
		}
		if err := txn.Set(keyLinkToken(link.Token), []byte(link.ID.String())); err != nil {
			return fmt.Errorf("failed to index token: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) GetLink(ctx context.Context, id uuid.UUID) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var link *share.DownloadLink
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		link, err = getLinkTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *BadgerStore) GetLinkByToken(ctx context.Context, token string) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var link *share.DownloadLink
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupLinkTokenTxn(txn, token)
		if err != nil {
			return err
		}
		link, err = getLinkTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// ConsumeLink claims one download in a read-modify-write transaction.
// On commit conflict (another consumer won the race) the claim is retried
// against the committed counter, so the quota check always sees the latest
// value and over-claiming is impossible.
func (s *BadgerStore) ConsumeLink(ctx context.Context, token string, now time.Time) (*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < consumeRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var link *share.DownloadLink
		err := s.db.Update(func(txn *badger.Txn) error {
			id, err := lookupLinkTokenTxn(txn, token)
			if err != nil {
				return err
			}
			current, err := getLinkTxn(txn, id)
			if err != nil {
				return err
			}

			// Expiry is checked before the Active flag so a stale
			// sweeper can never extend access.
			if current.Expired(now) {
				return fmt.Errorf("link %s: %w", current.ID, share.ErrExpired)
			}
			if !current.Active {
				return fmt.Errorf("link %s: %w", current.ID, share.ErrRevoked)
			}
			if current.Exhausted() {
				return fmt.Errorf("link %s: %w", current.ID, share.ErrExhausted)
			}

			current.DownloadCount++

			encoded, err := json.Marshal(current)
			if err != nil {
				return fmt.Errorf("failed to encode link: %w", err)
			}
			if err := txn.Set(keyLink(current.ID), encoded); err != nil {
				return fmt.Errorf("failed to store link: %w", err)
			}

			link = current
			return nil
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return nil, err
		}
		return link, nil
	}

	return nil, fmt.Errorf("link token: %d consume conflicts: %w", consumeRetries, share.ErrContention)
}

func (s *BadgerStore) ListLinks(ctx context.Context) ([]*share.DownloadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*share.DownloadLink
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixLink)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var link share.DownloadLink
				if err := json.Unmarshal(val, &link); err != nil {
					return fmt.Errorf("failed to decode link: %w", err)
				}
				result = append(result, &link)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getPermTxn(txn *badger.Txn, id uuid.UUID) (*share.Permission, error) {
	item, err := txn.Get(keyPerm(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("permission %s: %w", id, share.ErrPermissionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission %s: %w", id, err)
	}

	var perm share.Permission
	err = item.Value(func(val []byte) error { return json.Unmarshal(val, &perm) })
	if err != nil {
		return nil, fmt.Errorf("failed to decode permission: %w", err)
	}
	return &perm, nil
}

func getLinkTxn(txn *badger.Txn, id uuid.UUID) (*share.DownloadLink, error) {
	item, err := txn.Get(keyLink(id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("link %s: %w", id, share.ErrLinkNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link %s: %w", id, err)
	}

	var link share.DownloadLink
	err = item.Value(func(val []byte) error { return json.Unmarshal(val, &link) })
	if err != nil {
		return nil, fmt.Errorf("failed to decode link: %w", err)
	}
	return &link, nil
}

func lookupLinkTokenTxn(txn *badger.Txn, token string) (uuid.UUID, error) {
	item, err := txn.Get(keyLinkToken(token))
	if err == badger.ErrKeyNotFound {
		return uuid.Nil, fmt.Errorf("link token: %w", share.ErrLinkNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up token: %w", err)
	}

	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		parsed, err := uuid.Parse(string(val))
		if err != nil {
			return fmt.Errorf("failed to decode uuid: %w", err)
		}
		id = parsed
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
