// Package s3 implements content-addressed storage on Amazon S3 and
// S3-compatible backends (MinIO, Localstack, Cloudflare R2).
//
// Objects are stored under "<keyPrefix><hash>". Because keys are content
// hashes, PutObject of identical bytes is naturally idempotent and retries
// are always safe.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/filedepot/filedepot/pkg/blob"
)

// S3Store implements blob.WritableStore and blob.ListableStore on S3.
//
// Thread Safety:
// The S3 client is safe for concurrent use; S3Store holds no mutable state.
type S3Store struct {
	client    *awss3.Client
	bucket    string
	keyPrefix string
}

// Config carries the dependencies for an S3Store. The client is built by
// the configuration factory so credential and endpoint handling stays in
// one place.
type Config struct {
	Client    *awss3.Client
	Bucket    string
	KeyPrefix string
}

// NewS3Store creates an S3-backed blob store. It verifies bucket access
// with a HeadBucket call so misconfiguration fails at startup rather than
// on the first upload.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 blob store: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 blob store: bucket is required")
	}

	store := &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	if _, err := cfg.Client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("s3 blob store: bucket %q not accessible: %w", cfg.Bucket, err)
	}

	return store, nil
}

func (s *S3Store) objectKey(hash blob.Hash) string {
	return s.keyPrefix + string(hash)
}

// isNotFound reports whether err is an S3 missing-object error.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

func (s *S3Store) Open(ctx context.Context, hash blob.Hash) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(hash)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("open %s: %w", hash, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w: %v", hash, blob.ErrUnavailable, err)
	}

	return result.Body, nil
}

func (s *S3Store) Size(ctx context.Context, hash blob.Hash) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(hash)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("size %s: %w", hash, blob.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to head object %s: %w: %v", hash, blob.ErrUnavailable, err)
	}

	if result.ContentLength == nil {
		return 0, nil
	}
	return uint64(*result.ContentLength), nil
}

func (s *S3Store) Exists(ctx context.Context, hash blob.Hash) (bool, error) {
	_, err := s.Size(ctx, hash)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3Store) Put(ctx context.Context, data []byte) (blob.Hash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := blob.Sum(data)

	// Skip the upload when the object is already present. A lost race
	// here is harmless: both writers upload identical bytes to the same
	// key.
	if ok, err := s.Exists(ctx, hash); err == nil && ok {
		return hash, nil
	}

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(hash)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w: %v", hash, blob.ErrUnavailable, err)
	}

	return hash, nil
}

func (s *S3Store) PutStream(ctx context.Context, r io.Reader) (blob.Hash, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	// The object key is the content hash, which is unknown until the
	// stream ends, so the stream is buffered before upload.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read content stream: %w", err)
	}

	hash, err := s.Put(ctx, data)
	if err != nil {
		return "", 0, err
	}
	return hash, uint64(len(data)), nil
}

func (s *S3Store) Delete(ctx context.Context, hash blob.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// DeleteObject is idempotent on S3: deleting a missing key succeeds.
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(hash)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w: %v", hash, blob.ErrUnavailable, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]blob.Hash, error) {
	var hashes []blob.Hash

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w: %v", blob.ErrUnavailable, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			hashes = append(hashes, blob.Hash(strings.TrimPrefix(*obj.Key, s.keyPrefix)))
		}
	}

	return hashes, nil
}
