package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cloo-solutions/folio/internal/domain"
)

// DefaultS3CacheKey is the object key used when none is configured.
const DefaultS3CacheKey = "folio/embeddings_cache.json"

// S3ClientConfig holds configuration for S3CacheStore
type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Key             string
	UsePathStyle    bool
}

// objectAPI is the subset of the S3 client used by S3CacheStore
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3CacheStore keeps the embedding cache as a single JSON object in
// S3-compatible storage (e.g., RustFS, MinIO)
type S3CacheStore struct {
	client objectAPI
	bucket string
	key    string
}

// NewS3CacheStore creates a new S3CacheStore with the given configuration
func NewS3CacheStore(ctx context.Context, cfg S3ClientConfig) (*S3CacheStore, error) {
	if cfg.Bucket == "" {
		return nil, domain.NewConfigError("S3 bucket is required for the s3 cache backend")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing for S3-compatible services
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3CacheStore(client, cfg.Bucket, cfg.Key), nil
}

func newS3CacheStore(client objectAPI, bucket, key string) *S3CacheStore {
	if key == "" {
		key = DefaultS3CacheKey
	}
	return &S3CacheStore{client: client, bucket: bucket, key: key}
}

// Load fetches and decodes the cache object. A missing object is not an error.
func (s *S3CacheStore) Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache object: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache object: %w", err)
	}

	return decodeEntry(data)
}

// Save uploads the cache object. A single PutObject replaces the previous
// object atomically.
func (s *S3CacheStore) Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put cache object: %w", err)
	}

	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3CacheStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
