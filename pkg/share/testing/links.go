package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/share"
)

// RunLinkTests runs download link storage tests, including the atomicity
// of ConsumeLink.
func (s *StoreTestSuite) RunLinkTests(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 5)
		mustPutLink(t, store, link)

		got, err := store.GetLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, int64(5), got.MaxDownloads)
		assert.Equal(t, int64(0), got.DownloadCount)

		byToken, err := store.GetLinkByToken(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, link.ID, byToken.ID)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		_, err := store.GetLink(ctx, uuid.New())
		AssertErrorIs(t, err, share.ErrLinkNotFound)

		_, err = store.GetLinkByToken(ctx, "no-such-token")
		AssertErrorIs(t, err, share.ErrLinkNotFound)
	})

	t.Run("ConsumeIncrementsCount", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 0)
		mustPutLink(t, store, link)

		for i := int64(1); i <= 3; i++ {
			got, err := store.ConsumeLink(ctx, link.Token, time.Now())
			require.NoError(t, err)
			assert.Equal(t, i, got.DownloadCount)
		}
	})

	t.Run("ConsumeEnforcesQuota", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 2)
		mustPutLink(t, store, link)

		_, err := store.ConsumeLink(ctx, link.Token, time.Now())
		require.NoError(t, err)
		_, err = store.ConsumeLink(ctx, link.Token, time.Now())
		require.NoError(t, err)

		_, err = store.ConsumeLink(ctx, link.Token, time.Now())
		AssertErrorIs(t, err, share.ErrExhausted)
	})

	t.Run("ConsumeExpiredBeatsActive", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 0)
		link.ExpiresAt = time.Now().Add(-time.Minute)
		link.Active = true
		mustPutLink(t, store, link)

		_, err := store.ConsumeLink(ctx, link.Token, time.Now())
		AssertErrorIs(t, err, share.ErrExpired)
	})

	t.Run("ConsumeRevoked", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 0)
		link.Active = false
		mustPutLink(t, store, link)

		_, err := store.ConsumeLink(ctx, link.Token, time.Now())
		AssertErrorIs(t, err, share.ErrRevoked)
	})

	t.Run("ConsumeUnknownToken", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()

		_, err := store.ConsumeLink(testContext(), "no-such-token", time.Now())
		AssertErrorIs(t, err, share.ErrLinkNotFound)
	})

	t.Run("ConcurrentConsumeSingleWinner", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 1)
		mustPutLink(t, store, link)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.ConsumeLink(ctx, link.Token, time.Now())
			}(i)
		}
		wg.Wait()

		// Exactly one goroutine claims the last quota unit.
		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				require.ErrorIs(t, err, share.ErrExhausted)
			}
		}
		assert.Equal(t, 1, winners)

		got, err := store.GetLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.DownloadCount)
	})

	t.Run("ConcurrentConsumeWithinQuota", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		const attempts = 8
		link := newLink(t, uuid.New(), attempts)
		mustPutLink(t, store, link)

		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.ConsumeLink(ctx, link.Token, time.Now())
			}(i)
		}
		wg.Wait()

		// Quota covers every attempt, so write conflicts must be
		// resolved by retrying, never surfaced as a revoked link.
		for _, err := range errs {
			require.NoError(t, err)
		}

		got, err := store.GetLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(attempts), got.DownloadCount)
	})

	t.Run("UpdatePreservesCount", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		link := newLink(t, uuid.New(), 0)
		mustPutLink(t, store, link)

		_, err := store.ConsumeLink(ctx, link.Token, time.Now())
		require.NoError(t, err)

		got, err := store.GetLink(ctx, link.ID)
		require.NoError(t, err)
		got.Active = false
		mustPutLink(t, store, got)

		after, err := store.GetLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), after.DownloadCount)
		assert.False(t, after.Active)
	})

	t.Run("ListLinks", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		mustPutLink(t, store, newLink(t, uuid.New(), 0))
		mustPutLink(t, store, newLink(t, uuid.New(), 3))

		links, err := store.ListLinks(ctx)
		require.NoError(t, err)
		assert.Len(t, links, 2)
	})
}
