// Package azurerm implements an Azure Blob Storage backup store.
package azurerm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/envctl/envctl/pkg/backup/store"
)

func init() {
	store.Register("azurerm", NewStore)
}

// Store keeps backups in an Azure Blob Storage container.
type Store struct {
	client        *azblob.Client
	containerName string
	prefix        string
}

// NewStore creates an Azure store. Requires "storage_account_name" and
// "container_name"; authentication falls back through access key, SAS
// token, connection string, and the default credential chain.
func NewStore(cfg map[string]string) (store.Store, error) {
	storageAccount, ok := cfg["storage_account_name"]
	if !ok || storageAccount == "" {
		return nil, fmt.Errorf("azurerm store requires 'storage_account_name' configuration")
	}

	containerName, ok := cfg["container_name"]
	if !ok || containerName == "" {
		return nil, fmt.Errorf("azurerm store requires 'container_name' configuration")
	}

	var client *azblob.Client

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", storageAccount)

	// Support custom endpoint (for Azurite emulator)
	if endpoint := cfg["endpoint"]; endpoint != "" {
		serviceURL = endpoint
	}

	if accessKey := cfg["access_key"]; accessKey != "" {
		cred, err := azblob.NewSharedKeyCredential(storageAccount, accessKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client with shared key: %w", err)
		}
	} else if sasToken := cfg["sas_token"]; sasToken != "" {
		var serviceURLWithSAS string
		if !strings.Contains(serviceURL, "?") {
			serviceURLWithSAS = serviceURL + "?" + strings.TrimPrefix(sasToken, "?")
		} else {
			serviceURLWithSAS = serviceURL + "&" + strings.TrimPrefix(sasToken, "?")
		}
		var err error
		client, err = azblob.NewClientWithNoCredential(serviceURLWithSAS, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client with SAS token: %w", err)
		}
	} else if connectionString := cfg["connection_string"]; connectionString != "" {
		var err error
		client, err = azblob.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client from connection string: %w", err)
		}
	} else {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default Azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client: %w", err)
		}
	}

	return &Store{
		client:        client,
		containerName: containerName,
		prefix:        cfg["prefix"],
	}, nil
}

func (s *Store) Type() string {
	return "azurerm"
}

func (s *Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	blobPath := s.fullPath(key)

	resp, err := s.client.DownloadStream(ctx, s.containerName, blobPath, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read backup from azure://%s/%s: %w", s.containerName, blobPath, err)
	}

	return resp.Body, nil
}

func (s *Store) Write(ctx context.Context, key string, data io.Reader) error {
	blobPath := s.fullPath(key)

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	_, err = s.client.UploadBuffer(ctx, s.containerName, blobPath, content, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: toPtr("text/plain"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write backup to azure://%s/%s: %w", s.containerName, blobPath, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	blobPath := s.fullPath(key)

	_, err := s.client.DeleteBlob(ctx, s.containerName, blobPath, nil)
	if err != nil {
		// Ignore not found errors for idempotency
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete backup from azure://%s/%s: %w", s.containerName, blobPath, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.fullPath(prefix)

	var keys []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &container.ListBlobsFlatOptions{
		Prefix: &fullPrefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				// Return key relative to store prefix
				relKey := strings.TrimPrefix(*item.Name, s.prefix+"/")
				if s.prefix == "" {
					relKey = *item.Name
				}
				keys = append(keys, relKey)
			}
		}
	}

	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	blobPath := s.fullPath(key)

	_, err := s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(blobPath).GetProperties(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return false, nil
		}
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
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

func toPtr[T any](v T) *T {
	return &v
}
