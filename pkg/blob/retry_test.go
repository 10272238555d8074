package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every operation with failErr until failures is
// exhausted, then delegates to a fixed in-memory blob.
type flakyStore struct {
	failures int
	failErr  error
	calls    int
	data     map[Hash][]byte
}

func newFlakyStore(failures int, failErr error) *flakyStore {
	return &flakyStore{
		failures: failures,
		failErr:  failErr,
		data:     make(map[Hash][]byte),
	}
}

func (f *flakyStore) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("backend hiccup: %w", f.failErr)
	}
	return nil
}

func (f *flakyStore) Open(ctx context.Context, hash Hash) (io.ReadCloser, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	data, ok := f.data[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *flakyStore) Size(ctx context.Context, hash Hash) (uint64, error) {
	if err := f.fail(); err != nil {
		return 0, err
	}
	data, ok := f.data[hash]
	if !ok {
		return 0, ErrNotFound
	}
	return uint64(len(data)), nil
}

func (f *flakyStore) Exists(ctx context.Context, hash Hash) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	_, ok := f.data[hash]
	return ok, nil
}

func (f *flakyStore) Put(ctx context.Context, data []byte) (Hash, error) {
	if err := f.fail(); err != nil {
		return "", err
	}
	hash := Sum(data)
	f.data[hash] = data
	return hash, nil
}

func (f *flakyStore) PutStream(ctx context.Context, r io.Reader) (Hash, uint64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	hash, err := f.Put(ctx, data)
	if err != nil {
		return "", 0, err
	}
	return hash, uint64(len(data)), nil
}

func (f *flakyStore) Delete(ctx context.Context, hash Hash) error {
	if err := f.fail(); err != nil {
		return err
	}
	delete(f.data, hash)
	return nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetrying_TransientFailureRecovers(t *testing.T) {
	inner := newFlakyStore(2, ErrUnavailable)
	store := WithRetry(inner, fastPolicy(4))

	hash, err := store.Put(context.Background(), []byte("eventually stored"))
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("eventually stored")), hash)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrying_ExhaustsAttempts(t *testing.T) {
	inner := newFlakyStore(10, ErrUnavailable)
	store := WithRetry(inner, fastPolicy(3))

	_, err := store.Put(context.Background(), []byte("never stored"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrying_PermanentErrorNotRetried(t *testing.T) {
	inner := newFlakyStore(0, nil)
	store := WithRetry(inner, fastPolicy(4))

	_, err := store.Open(context.Background(), Sum([]byte("missing")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestRetrying_ContextCancelStopsBackoff(t *testing.T) {
	inner := newFlakyStore(10, ErrUnavailable)
	store := WithRetry(inner, RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := store.Put(ctx, []byte("cancelled"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestRetrying_ListRequiresListableInner(t *testing.T) {
	inner := newFlakyStore(0, nil)
	store := WithRetry(inner, fastPolicy(2))

	_, err := store.List(context.Background())
	assert.ErrorIs(t, err, ErrNotListable)
}

func TestSum_Deterministic(t *testing.T) {
	assert.Equal(t, Sum([]byte("abc")), Sum([]byte("abc")))
	assert.NotEqual(t, Sum([]byte("abc")), Sum([]byte("abd")))

	// sha256("") is a fixed well-known digest
	assert.Equal(t, Hash("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"), Sum(nil))
}
