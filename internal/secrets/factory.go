package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/articlesync/articlesync/internal/awsconfig"
	"github.com/articlesync/articlesync/internal/config"
)

// NewProvider creates the provider selected by cfg.Provider
func NewProvider(ctx context.Context, cfg config.SecretsConfig) (Provider, error) {
	switch cfg.Provider {
	case config.SecretsProviderSSM:
		awsCfg, err := awsconfig.Load(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return NewSSMProvider(ssm.NewFromConfig(awsCfg)), nil
	case config.SecretsProviderSecretsManager:
		awsCfg, err := awsconfig.Load(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return NewSecretsManagerProvider(secretsmanager.NewFromConfig(awsCfg)), nil
	case config.SecretsProviderEnv:
		return NewEnvProvider(), nil
	case config.SecretsProviderKeyring:
		return NewKeyringProvider(cfg.KeyringService), nil
	default:
		return nil, fmt.Errorf("unsupported secrets provider: %s", cfg.Provider)
	}
}
