package blob

import (
	"context"
	"io"
	"time"

	"github.com/filedepot/filedepot/internal/logger"
)

// RetryPolicy bounds the retry loop applied to transient backend failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; each subsequent
	// retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the per-retry delay.
	MaxDelay time.Duration
}

// DefaultRetryPolicy is used when the configuration does not override it.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

// Retrying wraps a WritableStore and retries transient failures with
// bounded exponential backoff. Non-transient errors (ErrNotFound,
// ErrInvalidHash, ErrIntegrity) surface immediately.
//
// The wrapper exists so that storage-layer hiccups are absorbed inside the
// adapter call; callers above it only ever see a final verdict.
type Retrying struct {
	inner  WritableStore
	policy RetryPolicy
}

// WithRetry wraps store with the given policy. Zero-valued policy fields
// fall back to DefaultRetryPolicy.
func WithRetry(store WritableStore, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	return &Retrying{inner: store, policy: policy}
}

// do runs op, retrying transient errors until the policy is exhausted or
// the context is cancelled.
func (r *Retrying) do(ctx context.Context, name string, op func() error) error {
	var err error
	delay := r.policy.BaseDelay

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) {
			return err
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		logger.Warn("blob %s failed (attempt %d/%d), retrying in %s: %v",
			name, attempt, r.policy.MaxAttempts, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}

	return err
}

func (r *Retrying) Open(ctx context.Context, hash Hash) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := r.do(ctx, "open", func() error {
		var err error
		rc, err = r.inner.Open(ctx, hash)
		return err
	})
	return rc, err
}

func (r *Retrying) Size(ctx context.Context, hash Hash) (uint64, error) {
	var size uint64
	err := r.do(ctx, "size", func() error {
		var err error
		size, err = r.inner.Size(ctx, hash)
		return err
	})
	return size, err
}

func (r *Retrying) Exists(ctx context.Context, hash Hash) (bool, error) {
	var ok bool
	err := r.do(ctx, "exists", func() error {
		var err error
		ok, err = r.inner.Exists(ctx, hash)
		return err
	})
	return ok, err
}

func (r *Retrying) Put(ctx context.Context, data []byte) (Hash, error) {
	var hash Hash
	err := r.do(ctx, "put", func() error {
		var err error
		hash, err = r.inner.Put(ctx, data)
		return err
	})
	return hash, err
}

func (r *Retrying) PutStream(ctx context.Context, src io.Reader) (Hash, uint64, error) {
	// Streams cannot be rewound, so PutStream gets a single attempt.
	return r.inner.PutStream(ctx, src)
}

func (r *Retrying) Delete(ctx context.Context, hash Hash) error {
	return r.do(ctx, "delete", func() error {
		return r.inner.Delete(ctx, hash)
	})
}

// List passes through when the inner store supports enumeration.
func (r *Retrying) List(ctx context.Context) ([]Hash, error) {
	ls, ok := r.inner.(ListableStore)
	if !ok {
		return nil, ErrNotListable
	}
	return ls.List(ctx)
}

// Unwrap exposes the inner store for capability checks.
func (r *Retrying) Unwrap() WritableStore {
	return r.inner
}
