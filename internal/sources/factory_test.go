package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/articlesync/articlesync/internal/gate"
)

func TestNewContentSource(t *testing.T) {
	t.Parallel()

	cfg := testContentfulConfig("https://api.contentful.com")
	g := gate.New(gate.ChannelCMSRead, time.Millisecond)

	src, err := NewContentSource(cfg, "token", g, nil)
	require.NoError(t, err)
	assert.IsType(t, &Contentful{}, src)

	_, err = NewContentSource(cfg, "", g, nil)
	require.Error(t, err)

	_, err = NewContentSource(cfg, "token", nil, nil)
	require.Error(t, err)
}
