package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	appconfig "github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

// GCSStorage pushes into a Google Cloud Storage bucket. AccessSecret is the
// path of a service-account key file; AccessKey names the account.
type GCSStorage struct {
	cfg    appconfig.StorageConfig
	client *gcs.Client
}

var _ domain.Storage = (*GCSStorage)(nil)

func NewGCS(cfg appconfig.StorageConfig) *GCSStorage {
	return &GCSStorage{cfg: cfg}
}

func (g *GCSStorage) Name() string {
	return "GCS"
}

func (g *GCSStorage) Connect(ctx context.Context) error {
	if g.client == nil {
		opts := make([]option.ClientOption, 0, 2)

		if g.cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(g.cfg.Endpoint), option.WithoutAuthentication())
		} else {
			opts = append(opts, option.WithCredentialsFile(g.cfg.AccessSecret))
		}

		client, err := gcs.NewClient(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create GCS client: %w", err)
		}
		if g.cfg.MaxAttempts > 0 {
			client.SetRetry(gcs.WithMaxAttempts(g.cfg.MaxAttempts))
		}
		g.client = client
	}

	if _, err := g.client.Bucket(g.cfg.Bucket).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrBucketNotExist) {
			return fmt.Errorf("bucket %s does not exist: %w", g.cfg.Bucket, err)
		}
		// Bucket metadata needs storage.buckets.get; object creators lack it.
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: bucket %s: %w", domain.ErrBucketCheckDenied, g.cfg.Bucket, err)
		}
		return fmt.Errorf("bucket %s is not accessible: %w", g.cfg.Bucket, err)
	}

	return nil
}

// Upload writes body through a resumable session. On failure the writer's
// context is cancelled, which discards the session.
func (g *GCSStorage) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	if g.client == nil {
		return errors.New("gcs storage is not connected")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.cfg.Bucket).Object(key).NewWriter(ctx)
	if partSize := g.cfg.PartSize(); partSize > 0 {
		w.ChunkSize = int(partSize)
	}

	if _, err := io.Copy(w, body); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload to GCS: %w", err)
	}

	return nil
}

// Abort is a no-op: cancelled writes leave nothing behind.
func (g *GCSStorage) Abort(ctx context.Context, key, uploadID string) error {
	return nil
}

func (g *GCSStorage) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
