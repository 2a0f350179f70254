package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	appconfig "github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

const azureContentType = "application/octet-stream"

// AzureStorage pushes into an Azure Blob container. AccessKey is the storage
// account name and AccessSecret its shared key; Bucket names the container.
type AzureStorage struct {
	cfg    appconfig.StorageConfig
	client *azblob.Client
}

var _ domain.Storage = (*AzureStorage)(nil)

func NewAzure(cfg appconfig.StorageConfig) *AzureStorage {
	return &AzureStorage{cfg: cfg}
}

func (a *AzureStorage) Name() string {
	return "Azure"
}

func (a *AzureStorage) endpoint() string {
	if a.cfg.Endpoint != "" {
		return a.cfg.Endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", a.cfg.AccessKey)
}

func (a *AzureStorage) Connect(ctx context.Context) error {
	if a.client == nil {
		cred, err := azblob.NewSharedKeyCredential(a.cfg.AccessKey, a.cfg.AccessSecret)
		if err != nil {
			return fmt.Errorf("failed to create Azure shared key credentials: %w", err)
		}

		client, err := azblob.NewClientWithSharedKeyCredential(a.endpoint(), cred, a.clientOptions())
		if err != nil {
			return fmt.Errorf("failed to create Azure Blob client: %w", err)
		}
		a.client = client
	}

	containerClient := a.client.ServiceClient().NewContainerClient(a.cfg.Bucket)
	if _, err := containerClient.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return fmt.Errorf("container %s does not exist: %w", a.cfg.Bucket, err)
		}
		// Container properties need read rights that write-only SAS policies omit.
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: container %s: %w", domain.ErrBucketCheckDenied, a.cfg.Bucket, err)
		}
		return fmt.Errorf("unable to get container %s properties: %w", a.cfg.Bucket, err)
	}

	return nil
}

func (a *AzureStorage) clientOptions() *azblob.ClientOptions {
	if a.cfg.MaxAttempts <= 0 {
		return nil
	}

	// MaxRetries counts retries after the first try; -1 disables them.
	retries := int32(a.cfg.MaxAttempts - 1)
	if retries == 0 {
		retries = -1
	}

	return &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: retries},
		},
	}
}

// Upload stages body as blocks and commits them once the stream ends.
func (a *AzureStorage) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	if a.client == nil {
		return errors.New("azure storage is not connected")
	}

	contentType := azureContentType
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if partSize := a.cfg.PartSize(); partSize > 0 {
		opts.BlockSize = partSize
	}

	if _, err := a.client.UploadStream(ctx, a.cfg.Bucket, key, body, opts); err != nil {
		return fmt.Errorf("failed to upload to Azure: %w", err)
	}

	return nil
}

// Abort is a no-op: uncommitted blocks are garbage-collected by the service.
func (a *AzureStorage) Abort(ctx context.Context, key, uploadID string) error {
	return nil
}

func (a *AzureStorage) Close() error {
	return nil
}
