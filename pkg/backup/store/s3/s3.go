// Package s3 implements an S3-compatible backup store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/envctl/envctl/pkg/backup/store"
)

func init() {
	store.Register("s3", NewStore)
}

// Store keeps backups in an S3-compatible bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	region string
}

// NewStore creates an S3 store. Requires "bucket"; "region",
// "access_key"/"secret_key", "endpoint", "force_path_style", and
// "prefix" are optional.
func NewStore(cfg map[string]string) (store.Store, error) {
	bucket, ok := cfg["bucket"]
	if !ok || bucket == "" {
		return nil, fmt.Errorf("s3 store requires 'bucket' configuration")
	}

	region := cfg["region"]
	if region == "" {
		region = "us-east-1"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))

	// Support explicit credentials
	if accessKey := cfg["access_key"]; accessKey != "" {
		secretKey := cfg["secret_key"]
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg["force_path_style"] == "true"
		// Support custom endpoint (for MinIO, R2, etc.)
		if endpoint := cfg["endpoint"]; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Store{
		client: client,
		bucket: bucket,
		prefix: cfg["prefix"],
		region: region,
	}, nil
}

func (s *Store) Type() string {
	return "s3"
}

func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey := s.fullPath(key)

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &objectKey,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if ok := errors.As(err, &nsk); ok {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read backup from s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	return output.Body, nil
}

func (s *Store) Write(ctx context.Context, key string, data io.Reader) error {
	objectKey := s.fullPath(key)

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objectKey,
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to write backup to s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	objectKey := s.fullPath(key)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &objectKey,
	})
	if err != nil {
		// Ignore not found errors for idempotency
		var nsk *types.NoSuchKey
		if ok := errors.As(err, &nsk); ok {
			return nil
		}
		return fmt.Errorf("failed to delete backup from s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.fullPath(prefix)

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &fullPrefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			// Return key relative to store prefix
			relKey := strings.TrimPrefix(*obj.Key, s.prefix+"/")
			keys = append(keys, relKey)
		}
	}

	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	objectKey := s.fullPath(key)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &objectKey,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if ok := errors.As(err, &nsk); ok {
			return false, nil
		}
		// Also check for 404 status
		var notFound *types.NotFound
		if ok := errors.As(err, &notFound); ok {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}

func (s *Store) fullPath(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
