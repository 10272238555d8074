package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/blob"
	blobfs "github.com/filedepot/filedepot/pkg/blob/fs"
	blobmemory "github.com/filedepot/filedepot/pkg/blob/memory"
	blobs3 "github.com/filedepot/filedepot/pkg/blob/s3"
	"github.com/filedepot/filedepot/pkg/catalog"
	catalogbadger "github.com/filedepot/filedepot/pkg/catalog/badger"
	catalogmemory "github.com/filedepot/filedepot/pkg/catalog/memory"
	"github.com/filedepot/filedepot/pkg/share"
	sharebadger "github.com/filedepot/filedepot/pkg/share/badger"
	sharememory "github.com/filedepot/filedepot/pkg/share/memory"
)

// CreateBlobStore creates a blob store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/blob/memory (in-memory storage, ephemeral)
//   - "filesystem": Uses pkg/blob/fs (local filesystem storage)
//   - "s3": Uses pkg/blob/s3 (Amazon S3 or compatible storage)
//
// When cfg.Retry.Enabled the store is wrapped with blob.WithRetry so
// transient backend failures are retried with exponential backoff.
func CreateBlobStore(ctx context.Context, cfg *BlobConfig) (blob.WritableStore, error) {
	var (
		store blob.WritableStore
		err   error
	)

	switch cfg.Type {
	case "memory":
		store, err = createMemoryBlobStore(ctx)
	case "filesystem":
		store, err = createFilesystemBlobStore(ctx, cfg.Filesystem)
	case "s3":
		store, err = createS3BlobStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q (supported: memory, filesystem, s3)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Retry.Enabled {
		store = blob.WithRetry(store, blob.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		})
	}

	return store, nil
}

// createMemoryBlobStore creates an in-memory blob store.
func createMemoryBlobStore(ctx context.Context) (blob.WritableStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return blobmemory.NewMemoryStore(), nil
}

// createFilesystemBlobStore creates a filesystem-based blob store.
func createFilesystemBlobStore(ctx context.Context, options map[string]any) (blob.WritableStore, error) {
	type FilesystemBlobStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	var storeOpts FilesystemBlobStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem blob store options: %w", err)
	}

	if storeOpts.Path == "" {
		return nil, fmt.Errorf("filesystem blob store: path is required")
	}

	store, err := blobfs.NewFSStore(ctx, storeOpts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem blob store: %w", err)
	}

	return store, nil
}

// createS3BlobStore creates an S3-based blob store.
func createS3BlobStore(ctx context.Context, options map[string]any) (blob.WritableStore, error) {
	type S3BlobStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeOpts S3BlobStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 blob store options: %w", err)
	}

	if storeOpts.Bucket == "" {
		return nil, fmt.Errorf("s3 blob store: bucket is required")
	}
	if storeOpts.Region == "" {
		return nil, fmt.Errorf("s3 blob store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeOpts.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if storeOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use the default credential chain
	if storeOpts.AccessKeyID != "" && storeOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeOpts.AccessKeyID,
			storeOpts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for resilience against temporary S3 failures.
	// Default to 10 attempts (increased from the AWS default of 3).
	maxRetries := storeOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if storeOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := blobs3.NewS3Store(ctx, blobs3.Config{
		Client:    client,
		Bucket:    storeOpts.Bucket,
		KeyPrefix: storeOpts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("S3 blob store initialized: bucket=%s, region=%s, prefix=%s",
		storeOpts.Bucket, storeOpts.Region, storeOpts.KeyPrefix)

	return store, nil
}

// CreateCatalogStore creates a file catalog store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/catalog/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/catalog/badger (BadgerDB storage, persistent)
func CreateCatalogStore(ctx context.Context, cfg *CatalogConfig) (catalog.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return catalogmemory.NewMemoryStore(), nil
	case "badger":
		return createBadgerCatalogStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown catalog store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createBadgerCatalogStore creates a BadgerDB-based persistent catalog.
func createBadgerCatalogStore(ctx context.Context, options map[string]any) (catalog.Store, error) {
	type BadgerCatalogStoreOptions struct {
		DBPath           string `mapstructure:"db_path"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_size_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_size_mb"`
	}

	var storeOpts BadgerCatalogStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger catalog store options: %w", err)
	}

	if storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger catalog store: db_path is required")
	}

	store, err := catalogbadger.NewBadgerStore(ctx, catalogbadger.BadgerStoreConfig{
		DBPath:           storeOpts.DBPath,
		BlockCacheSizeMB: storeOpts.BlockCacheSizeMB,
		IndexCacheSizeMB: storeOpts.IndexCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger catalog store: %w", err)
	}

	return store, nil
}

// CreateShareStore creates a share store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/share/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/share/badger (BadgerDB storage, persistent)
func CreateShareStore(ctx context.Context, cfg *ShareConfig) (share.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return sharememory.NewMemoryStore(), nil
	case "badger":
		return createBadgerShareStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown share store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createBadgerShareStore creates a BadgerDB-based persistent share store.
func createBadgerShareStore(ctx context.Context, options map[string]any) (share.Store, error) {
	type BadgerShareStoreOptions struct {
		DBPath string `mapstructure:"db_path"`
	}

	var storeOpts BadgerShareStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger share store options: %w", err)
	}

	if storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger share store: db_path is required")
	}

	store, err := sharebadger.NewBadgerStore(ctx, sharebadger.BadgerStoreConfig{
		DBPath: storeOpts.DBPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger share store: %w", err)
	}

	return store, nil
}
