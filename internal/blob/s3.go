package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

//go:generate mockgen -destination=mocks/mock_s3.go -package=mocks -source=s3.go S3API

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps objects in a single bucket
type S3Store struct {
	client S3API
	bucket string
	logger *slog.Logger
}

// NewS3Store creates a store backed by bucket
func NewS3Store(client S3API, bucket string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		logger: slog.Default().With("component", "blob.s3", "bucket", bucket),
	}
}

// Get downloads the object stored under key
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, &Error{Op: "get", Key: key, Err: ErrNotFound}
		}
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: fmt.Errorf("failed to read object body: %w", err)}
	}

	s.logger.DebugContext(ctx, "Downloaded object", "key", key, "bytes", len(data))
	return data, nil
}

// Put uploads data under key
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}

	s.logger.DebugContext(ctx, "Uploaded object", "key", key, "bytes", len(data))
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
