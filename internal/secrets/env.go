package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider reads secrets from environment variables named after the secrets
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider reading the process environment
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// GetSecrets returns the value of each variable. Empty variables count as missing.
func (p *EnvProvider) GetSecrets(_ context.Context, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		value, ok := p.lookup(name)
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: environment variable %s", ErrSecretNotFound, name)
		}
		values[name] = value
	}
	return values, nil
}
