package domain

import (
	"context"
	"io"
)

// Storage is a remote object store the pusher uploads into.
type Storage interface {
	// Name is the label used in report log entries, e.g. "S3".
	Name() string
	// Connect builds the client and checks the bucket. An error wrapping
	// ErrBucketCheckDenied leaves the storage usable.
	Connect(ctx context.Context) error
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
	Abort(ctx context.Context, key, uploadID string) error
	Close() error
}
