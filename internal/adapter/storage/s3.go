package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	appconfig "github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

const abortTimeout = 10 * time.Second

type S3Storage struct {
	cfg      appconfig.StorageConfig
	client   *s3.Client
	uploader *s3manager.Uploader
}

var _ domain.Storage = (*S3Storage)(nil)

// NewS3 creates an S3Storage. No network traffic happens until Connect.
func NewS3(cfg appconfig.StorageConfig) *S3Storage {
	return &S3Storage{cfg: cfg}
}

// newS3WithClient skips credential loading, used with test endpoints.
func newS3WithClient(cfg appconfig.StorageConfig, client *s3.Client) *S3Storage {
	s := &S3Storage{cfg: cfg}
	s.setClient(client)
	return s
}

func (s *S3Storage) Name() string {
	return "S3"
}

// Connect loads credentials and checks the bucket is reachable.
func (s *S3Storage) Connect(ctx context.Context) error {
	if s.client == nil {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(s.cfg.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.AccessSecret, ""),
			),
		}
		if s.cfg.MaxAttempts > 0 {
			opts = append(opts, awsconfig.WithRetryMaxAttempts(s.cfg.MaxAttempts))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		s.setClient(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if s.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			}
			o.UsePathStyle = s.cfg.UsePathStyle
		}))
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("bucket %s does not exist: %w", s.cfg.Bucket, err)
		}
		// HeadBucket needs s3:ListBucket, which upload-only policies omit.
		if isAccessDenied(err) {
			return fmt.Errorf("%w: bucket %s: %w", domain.ErrBucketCheckDenied, s.cfg.Bucket, err)
		}
		return fmt.Errorf("bucket %s is not accessible: %w", s.cfg.Bucket, err)
	}

	return nil
}

func (s *S3Storage) setClient(client *s3.Client) {
	s.client = client
	s.uploader = s3manager.NewUploader(client, func(u *s3manager.Uploader) {
		if size := s.cfg.PartSize(); size > 0 {
			u.PartSize = size
		}
		// Partial uploads are aborted explicitly by the caller.
		u.LeavePartsOnError = true
	})
}

// Upload streams body to key. Small bodies go up in a single PutObject,
// larger ones as a multipart upload.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	if s.uploader == nil {
		return errors.New("s3 storage is not connected")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if s.cfg.StorageClass != "" {
		input.StorageClass = types.StorageClass(s.cfg.StorageClass)
	}

	_, err := s.uploader.Upload(ctx, input)
	if err != nil {
		var multi s3manager.MultiUploadFailure
		if errors.As(err, &multi) && multi.UploadID() != "" {
			return &domain.PartialUploadError{
				Key:      key,
				UploadID: multi.UploadID(),
				Err:      fmt.Errorf("failed to upload to S3: %w", err),
			}
		}
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// Abort releases the parts of an unfinished multipart upload.
func (s *S3Storage) Abort(ctx context.Context, key, uploadID string) error {
	if s.client == nil || uploadID == "" {
		return nil
	}

	// The upload context may already be cancelled.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	_, err := s.client.AbortMultipartUpload(cleanupCtx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.cfg.Bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return fmt.Errorf("failed to abort multipart upload %s: %w", uploadID, err)
	}

	return nil
}

func (s *S3Storage) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services may not return the typed errors.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchBucket" || code == "NotFound"
	}

	return false
}

func isAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden
}
