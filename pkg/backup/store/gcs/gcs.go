// Package gcs implements a Google Cloud Storage backup store.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/envctl/envctl/pkg/backup/store"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func init() {
	store.Register("gcs", NewStore)
}

// Store keeps backups in a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore creates a GCS store. Requires "bucket"; "credentials",
// "credentials_json", "endpoint", and "prefix" are optional.
func NewStore(cfg map[string]string) (store.Store, error) {
	bucketName, ok := cfg["bucket"]
	if !ok || bucketName == "" {
		return nil, fmt.Errorf("gcs store requires 'bucket' configuration")
	}

	ctx := context.Background()
	var opts []option.ClientOption

	// Support explicit credentials file
	if credentialsFile := cfg["credentials"]; credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	// Support credentials JSON
	if credentialsJSON := cfg["credentials_json"]; credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	// Support custom endpoint (for emulator)
	if endpoint := cfg["endpoint"]; endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucketName,
		prefix: cfg["prefix"],
	}, nil
}

func (s *Store) Type() string {
	return "gcs"
}

func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	objectPath := s.fullPath(key)

	reader, err := s.client.Bucket(s.bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read backup from gs://%s/%s: %w", s.bucket, objectPath, err)
	}

	return reader, nil
}

func (s *Store) Write(ctx context.Context, key string, data io.Reader) error {
	objectPath := s.fullPath(key)

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	writer := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = "text/plain"

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write backup to gs://%s/%s: %w", s.bucket, objectPath, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	objectPath := s.fullPath(key)

	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if err != nil {
		// Ignore not found errors for idempotency
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete backup from gs://%s/%s: %w", s.bucket, objectPath, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.fullPath(prefix)

	var keys []string
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix: fullPrefix,
	})

	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		// Return key relative to store prefix
		relKey := strings.TrimPrefix(attrs.Name, s.prefix+"/")
		if s.prefix == "" {
			relKey = attrs.Name
		}
		keys = append(keys, relKey)
	}

	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	objectPath := s.fullPath(key)

	_, err := s.client.Bucket(s.bucket).Object(objectPath).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
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
