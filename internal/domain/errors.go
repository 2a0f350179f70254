package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfig       = errors.New("invalid configuration")
	ErrConnection   = errors.New("storage connection failed")
	ErrListing      = errors.New("backup directory listing failed")
	ErrRequestBuild = errors.New("failed to build upload request")
	ErrUpload       = errors.New("upload failed")

	// ErrBucketCheckDenied is returned by Storage.Connect when the client is
	// ready but the credentials may not inspect the bucket. Write-only
	// credentials can still push, so callers treat it as connected.
	ErrBucketCheckDenied = errors.New("bucket check not permitted")
)

// PartialUploadError is returned by Storage.Upload when the backend left an
// incomplete multipart upload behind that should be aborted.
type PartialUploadError struct {
	Key      string
	UploadID string
	Err      error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("partial upload %s of %s: %v", e.UploadID, e.Key, e.Err)
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}
