package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// keyring.MockInit swaps a process-wide backend, so this test is not parallel
func TestKeyringProvider(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, keyring.Set("articlesync", "contentful-token", "cf"))

	p := NewKeyringProvider("articlesync")
	values, err := p.GetSecrets(context.Background(), []string{"contentful-token"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"contentful-token": "cf"}, values)

	_, err = p.GetSecrets(context.Background(), []string{"notion-token"})
	require.ErrorIs(t, err, ErrSecretNotFound)
}
