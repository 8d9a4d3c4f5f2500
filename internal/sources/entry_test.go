package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Fields(t *testing.T) {
	t.Parallel()

	e, err := NewEntry([]byte(`{
		"sys": {"id": "entry-1", "createdAt": "2024-03-04T05:06:07.890Z"},
		"fields": {
			"title": {"en-US": "Hello", "ja": "こんにちは"},
			"author": {"en-US": {"sys": {"type": "Link", "linkType": "Entry", "id": "author-9"}}},
			"thumbnail": {"en-US": {"sys": {"id": ""}}},
			"count": {"en-US": 3}
		}
	}`), "en-US")
	require.NoError(t, err)

	assert.Equal(t, "entry-1", e.ID())

	created, ok := e.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, "2024-03-04T05:06:07.890Z", created)

	title, ok := e.String("title")
	require.True(t, ok)
	assert.Equal(t, "Hello", title)

	id, ok := e.LinkID("author")
	require.True(t, ok)
	assert.Equal(t, "author-9", id)

	_, ok = e.LinkID("thumbnail")
	assert.False(t, ok, "empty link id")

	_, ok = e.String("count")
	assert.False(t, ok, "non-string value")

	_, ok = e.String("missing")
	assert.False(t, ok)

	_, ok = e.LinkID("missing")
	assert.False(t, ok)
}

func TestEntry_Locale(t *testing.T) {
	t.Parallel()

	e, err := NewEntry([]byte(`{"fields":{"title":{"en-US":"Hello","ja":"こんにちは"}}}`), "ja")
	require.NoError(t, err)

	title, ok := e.String("title")
	require.True(t, ok)
	assert.Equal(t, "こんにちは", title)

	_, ok = e.CreatedAt()
	assert.False(t, ok)
}

func TestNewEntry_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewEntry([]byte(`{"fields":`), "en-US")
	require.ErrorIs(t, err, ErrMalformed)
}
