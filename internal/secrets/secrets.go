// Package secrets resolves the credentials a run needs. Values are fetched in
// one batch from the configured provider at startup and passed explicitly to
// the components that use them.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/articlesync/articlesync/internal/config"
)

// ErrSecretNotFound is returned when a named secret does not exist
var ErrSecretNotFound = errors.New("secret not found")

// Provider fetches secret values by name
type Provider interface {
	// GetSecrets returns the value of every name. A missing name is an
	// error wrapping ErrSecretNotFound.
	GetSecrets(ctx context.Context, names []string) (map[string]string, error)
}

// Credentials are the resolved secret values of one run
type Credentials struct {
	ContentfulToken  string
	NotionToken      string
	NotionDatabaseID string
	DatabasePassword string
}

// String never prints secret values
func (Credentials) String() string {
	return "secrets.Credentials{redacted}"
}

// GoString never prints secret values
func (c Credentials) GoString() string {
	return c.String()
}

// Resolve fetches every configured name in one batch. Names left empty in the
// configuration are skipped and their credential stays empty.
func Resolve(ctx context.Context, p Provider, names config.SecretNames) (*Credentials, error) {
	creds := &Credentials{}
	targets := map[string][]*string{}
	for _, field := range []struct {
		name   string
		target *string
	}{
		{names.ContentfulToken, &creds.ContentfulToken},
		{names.NotionToken, &creds.NotionToken},
		{names.NotionDatabaseID, &creds.NotionDatabaseID},
		{names.DatabasePassword, &creds.DatabasePassword},
	} {
		if field.name == "" {
			continue
		}
		targets[field.name] = append(targets[field.name], field.target)
	}
	if len(targets) == 0 {
		return creds, nil
	}

	batch := make([]string, 0, len(targets))
	for name := range targets {
		batch = append(batch, name)
	}
	slices.Sort(batch)

	values, err := p.GetSecrets(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}

	for name, ptrs := range targets {
		value, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		for _, ptr := range ptrs {
			*ptr = value
		}
	}
	return creds, nil
}
