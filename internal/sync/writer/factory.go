package writer

import (
	"fmt"

	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/gate"
	"github.com/articlesync/articlesync/internal/httpclient"
	"github.com/articlesync/articlesync/internal/secrets"
	"github.com/articlesync/articlesync/internal/telemetry"
)

// Dependencies are the runtime collaborators a publisher may need
type Dependencies struct {
	// Gate throttles destination writes
	Gate *gate.Gate

	// Metrics records one observation per request
	Metrics *telemetry.RequestMetrics

	// DB is the connection used by the postgres destination
	DB DBTX
}

// NewPublisher creates the Publisher for the configured destination type.
func NewPublisher(cfg *config.Config, creds *secrets.Credentials, deps Dependencies) (Publisher, error) {
	switch cfg.Destination.Type {
	case config.DestinationNotion:
		if creds == nil || creds.NotionToken == "" {
			return nil, fmt.Errorf("notion token is required")
		}
		if deps.Gate == nil {
			return nil, fmt.Errorf("workspace-write gate is required")
		}
		client := httpclient.NewDefaultClient(
			httpclient.WithTimeout(cfg.Notion.TimeoutDuration()),
			httpclient.WithGate(deps.Gate),
			httpclient.WithBearerToken(creds.NotionToken),
			httpclient.WithHeader("Notion-Version", cfg.Notion.Version),
			httpclient.WithMetrics(deps.Metrics),
		)
		return NewNotionPublisher(client, cfg.Notion.BaseURL, creds.NotionDatabaseID)
	case config.DestinationPostgres:
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required")
		}
		return NewDBPublisher(deps.DB, cfg.Database.Table)
	default:
		return nil, fmt.Errorf("unsupported destination type: %s", cfg.Destination.Type)
	}
}
