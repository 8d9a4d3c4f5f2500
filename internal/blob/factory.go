package blob

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/articlesync/articlesync/internal/awsconfig"
	"github.com/articlesync/articlesync/internal/config"
)

// NewStore creates the store selected by cfg.Type
func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case config.StorageTypeS3:
		awsCfg, err := awsconfig.Load(ctx, cfg.S3.Region)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			}
			o.UsePathStyle = cfg.S3.UsePathStyle
		})
		return NewS3Store(client, cfg.S3.Bucket), nil
	case config.StorageTypeFile:
		return NewFileStore(cfg.File.Path), nil
	case TypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
