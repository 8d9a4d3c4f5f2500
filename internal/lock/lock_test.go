package lock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "articlesync.lock")

	first, err := Acquire(path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path())

	_, err = Acquire(path)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	second, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
