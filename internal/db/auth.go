package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"

	"github.com/articlesync/articlesync/internal/awsconfig"
	"github.com/articlesync/articlesync/internal/config"
)

// tokenBuilder signs an RDS IAM authentication token
type tokenBuilder func(
	ctx context.Context, endpoint, region, user string, creds aws.CredentialsProvider, optFns ...func(*auth.BuildAuthTokenOptions),
) (string, error)

// rdsIAM builds tokens for one database user
type rdsIAM struct {
	endpoint string
	user     string
	awsCfg   aws.Config
	build    tokenBuilder
}

func newRDSIAM(ctx context.Context, cfg *config.DatabaseConfig) (*rdsIAM, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg.AWSRDSIAM.Region)
	if err != nil {
		return nil, err
	}
	return &rdsIAM{
		endpoint: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		user:     cfg.User,
		awsCfg:   awsCfg,
		build:    auth.BuildAuthToken,
	}, nil
}

func (r *rdsIAM) token(ctx context.Context) (string, error) {
	token, err := r.build(ctx, r.endpoint, r.awsCfg.Region, r.user, r.awsCfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("failed to build authentication token: %w", err)
	}
	return token, nil
}

// beforeConnect sets a fresh token as the password of every new connection
func (r *rdsIAM) beforeConnect(ctx context.Context, connConfig *pgx.ConnConfig) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	connConfig.Password = token
	return nil
}

// MigrationConnectionString returns a pgx5:// URL for golang-migrate. With
// RDS IAM configured, a freshly signed token is embedded as the password.
func MigrationConnectionString(ctx context.Context, cfg *config.DatabaseConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("database configuration is required")
	}
	if cfg.AWSRDSIAM == nil {
		return cfg.ConnectionString("pgx5"), nil
	}

	iam, err := newRDSIAM(ctx, cfg)
	if err != nil {
		return "", err
	}
	token, err := iam.token(ctx)
	if err != nil {
		return "", err
	}

	withToken := *cfg
	withToken.Password = token
	return withToken.ConnectionString("pgx5"), nil
}
