package sources

import (
	"fmt"

	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/gate"
	"github.com/articlesync/articlesync/internal/httpclient"
	"github.com/articlesync/articlesync/internal/telemetry"
)

// NewContentSource creates the Contentful source described by cfg. Requests
// are authenticated with token and throttled by g.
func NewContentSource(
	cfg config.ContentfulConfig, token string, g *gate.Gate, metrics *telemetry.RequestMetrics,
) (ContentSource, error) {
	if token == "" {
		return nil, fmt.Errorf("contentful token is required")
	}
	if g == nil {
		return nil, fmt.Errorf("cms-read gate is required")
	}

	client := httpclient.NewDefaultClient(
		httpclient.WithTimeout(cfg.TimeoutDuration()),
		httpclient.WithGate(g),
		httpclient.WithBearerToken(token),
		httpclient.WithMetrics(metrics),
	)
	return NewContentful(client, cfg), nil
}
