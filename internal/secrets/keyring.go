package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringProvider reads secrets from the OS keyring. Each name is a user
// under one service.
type KeyringProvider struct {
	service string
}

// NewKeyringProvider creates a provider reading entries of service
func NewKeyringProvider(service string) *KeyringProvider {
	return &KeyringProvider{service: service}
}

// GetSecrets reads one keyring entry per name
func (p *KeyringProvider) GetSecrets(_ context.Context, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		value, err := keyring.Get(p.service, name)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("%w: keyring entry %s/%s", ErrSecretNotFound, p.service, name)
			}
			return nil, fmt.Errorf("failed to read keyring entry %s/%s: %w", p.service, name, err)
		}
		values[name] = value
	}
	return values, nil
}
