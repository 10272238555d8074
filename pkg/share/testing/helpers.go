package testing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/share"
)

// AssertErrorIs checks that err wraps the expected sentinel error.
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, target)
}

// newPermission builds an active internal file grant with a fresh ID.
func newPermission(t *testing.T, fileID uuid.UUID, granteeID string, level share.PermissionLevel) *share.Permission {
	t.Helper()
	return &share.Permission{
		ID:        uuid.New(),
		FileID:    fileID,
		GranteeID: granteeID,
		Type:      share.ShareTypeInternal,
		Level:     level,
		CreatedAt: time.Now(),
		CreatedBy: "owner-1",
		Active:    true,
	}
}

// newLink builds an active download link expiring in an hour.
func newLink(t *testing.T, fileID uuid.UUID, maxDownloads int64) *share.DownloadLink {
	t.Helper()
	token, err := share.NewToken()
	require.NoError(t, err)
	return &share.DownloadLink{
		ID:           uuid.New(),
		FileID:       fileID,
		Token:        token,
		CreatedAt:    time.Now(),
		CreatedBy:    "owner-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		MaxDownloads: maxDownloads,
		Active:       true,
	}
}

// mustPutPermission stores a permission, failing the test on error.
func mustPutPermission(t *testing.T, store share.Store, perm *share.Permission) {
	t.Helper()
	require.NoError(t, store.PutPermission(testContext(), perm))
}

// mustPutLink stores a link, failing the test on error.
func mustPutLink(t *testing.T, store share.Store, link *share.DownloadLink) {
	t.Helper()
	require.NoError(t, store.PutLink(testContext(), link))
}
