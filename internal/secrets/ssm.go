package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmBatchSize is the maximum number of names GetParameters accepts
const ssmBatchSize = 10

// SSMAPI is the subset of the SSM client used by SSMProvider
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider reads SecureString parameters from AWS Systems Manager
type SSMProvider struct {
	client SSMAPI
}

// NewSSMProvider creates a provider using client
func NewSSMProvider(client SSMAPI) *SSMProvider {
	return &SSMProvider{client: client}
}

// GetSecrets fetches the parameters with decryption, in batches of ten
func (p *SSMProvider) GetSecrets(ctx context.Context, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for start := 0; start < len(names); start += ssmBatchSize {
		batch := names[start:min(start+ssmBatchSize, len(names))]

		out, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get SSM parameters: %w", err)
		}
		if len(out.InvalidParameters) > 0 {
			return nil, fmt.Errorf("%w: %v", ErrSecretNotFound, out.InvalidParameters)
		}

		for _, param := range out.Parameters {
			values[aws.ToString(param.Name)] = aws.ToString(param.Value)
		}
	}
	return values, nil
}
