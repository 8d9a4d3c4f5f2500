package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by SecretsManagerProvider
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider reads string secrets from AWS Secrets Manager
type SecretsManagerProvider struct {
	client SecretsManagerAPI
}

// NewSecretsManagerProvider creates a provider using client
func NewSecretsManagerProvider(client SecretsManagerAPI) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client}
}

// GetSecrets fetches each secret by name or ARN
func (p *SecretsManagerProvider) GetSecrets(ctx context.Context, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(name),
		})
		if err != nil {
			var notFound *smtypes.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
			}
			return nil, fmt.Errorf("failed to get secret %s: %w", name, err)
		}
		if out.SecretString == nil {
			return nil, fmt.Errorf("secret %s has no string value", name)
		}
		values[name] = *out.SecretString
	}
	return values, nil
}
