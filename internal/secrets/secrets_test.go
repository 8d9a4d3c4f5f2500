package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/articlesync/articlesync/internal/config"
)

type staticProvider struct {
	values map[string]string
	calls  [][]string
	err    error
}

func (p *staticProvider) GetSecrets(_ context.Context, names []string) (map[string]string, error) {
	p.calls = append(p.calls, names)
	if p.err != nil {
		return nil, p.err
	}
	out := map[string]string{}
	for _, name := range names {
		if v, ok := p.values[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

func TestResolve(t *testing.T) {
	t.Parallel()

	p := &staticProvider{values: map[string]string{
		"/blog/contentful-token": "cf-token",
		"/blog/notion-token":     "notion-token",
		"/blog/notion-db":        "db-id",
	}}

	creds, err := Resolve(context.Background(), p, config.SecretNames{
		ContentfulToken:  "/blog/contentful-token",
		NotionToken:      "/blog/notion-token",
		NotionDatabaseID: "/blog/notion-db",
	})
	require.NoError(t, err)
	assert.Equal(t, "cf-token", creds.ContentfulToken)
	assert.Equal(t, "notion-token", creds.NotionToken)
	assert.Equal(t, "db-id", creds.NotionDatabaseID)
	assert.Empty(t, creds.DatabasePassword)

	require.Len(t, p.calls, 1, "all names are fetched in one batch")
	assert.Equal(t, []string{"/blog/contentful-token", "/blog/notion-db", "/blog/notion-token"}, p.calls[0])
}

func TestResolve_SharedName(t *testing.T) {
	t.Parallel()

	p := &staticProvider{values: map[string]string{"shared": "v"}}
	creds, err := Resolve(context.Background(), p, config.SecretNames{
		NotionToken:      "shared",
		DatabasePassword: "shared",
	})
	require.NoError(t, err)
	assert.Equal(t, "v", creds.NotionToken)
	assert.Equal(t, "v", creds.DatabasePassword)
	assert.Equal(t, []string{"shared"}, p.calls[0])
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	missing := &staticProvider{values: map[string]string{}}
	_, err := Resolve(context.Background(), missing, config.SecretNames{ContentfulToken: "absent"})
	require.ErrorIs(t, err, ErrSecretNotFound)

	boom := errors.New("throttled")
	failing := &staticProvider{err: boom}
	_, err = Resolve(context.Background(), failing, config.SecretNames{ContentfulToken: "x"})
	require.ErrorIs(t, err, boom)

	creds, err := Resolve(context.Background(), failing, config.SecretNames{})
	require.NoError(t, err)
	assert.Empty(t, creds.ContentfulToken)
	assert.Empty(t, failing.calls)
}

func TestCredentials_Redacted(t *testing.T) {
	t.Parallel()

	creds := Credentials{ContentfulToken: "super-secret"}
	assert.NotContains(t, creds.String(), "super-secret")
	assert.NotContains(t, creds.GoString(), "super-secret")
}

func TestEnvProvider(t *testing.T) {
	t.Parallel()

	env := map[string]string{"TOKEN_A": "a", "EMPTY": ""}
	p := &EnvProvider{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	values, err := p.GetSecrets(context.Background(), []string{"TOKEN_A"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TOKEN_A": "a"}, values)

	_, err = p.GetSecrets(context.Background(), []string{"EMPTY"})
	require.ErrorIs(t, err, ErrSecretNotFound)

	_, err = p.GetSecrets(context.Background(), []string{"UNSET"})
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(context.Background(), config.SecretsConfig{Provider: config.SecretsProviderEnv})
	require.NoError(t, err)
	assert.IsType(t, &EnvProvider{}, p)

	p, err = NewProvider(context.Background(), config.SecretsConfig{
		Provider:       config.SecretsProviderKeyring,
		KeyringService: "articlesync",
	})
	require.NoError(t, err)
	assert.IsType(t, &KeyringProvider{}, p)

	_, err = NewProvider(context.Background(), config.SecretsConfig{Provider: "vault"})
	require.Error(t, err)
}
