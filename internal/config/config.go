// Package config provides configuration loading for articlesync.
//
// Configuration comes from an optional YAML file, then environment overrides
// (ARTICLESYNC_* plus the historical deployment variable names), then
// defaults for anything still unset.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/articlesync/articlesync/internal/telemetry"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "ARTICLESYNC"

const (
	// DestinationNotion writes articles as pages of a Notion database
	DestinationNotion = "notion"

	// DestinationPostgres writes articles as rows of a PostgreSQL table
	DestinationPostgres = "postgres"
)

const (
	// PlannerModeExhaustive scans every page and collects every unknown article
	PlannerModeExhaustive = "exhaustive"

	// PlannerModeEarlyStop stops at the first article that is already known
	PlannerModeEarlyStop = "early-stop"
)

const (
	// StorageTypeS3 keeps state in an S3 bucket
	StorageTypeS3 = "s3"

	// StorageTypeFile keeps state below a local directory
	StorageTypeFile = "file"
)

const (
	// SecretsProviderSSM reads SecureString parameters from AWS Systems Manager
	SecretsProviderSSM = "ssm"

	// SecretsProviderSecretsManager reads secrets from AWS Secrets Manager
	SecretsProviderSecretsManager = "secretsmanager"

	// SecretsProviderEnv reads secrets from environment variables
	SecretsProviderEnv = "env"

	// SecretsProviderKeyring reads secrets from the OS keyring
	SecretsProviderKeyring = "keyring"
)

// Defaults
const (
	DefaultContentfulBaseURL     = "https://api.contentful.com"
	DefaultContentfulSpaceID     = "ct0aopd36mqt"
	DefaultContentfulEnvironment = "master"
	DefaultContentfulEntriesPath = "entries"
	DefaultContentfulLocale      = "en-US"
	DefaultContentType           = "blogPost"
	DefaultAuthorContentType     = "authorProfile"
	DefaultCategoryID            = "1DdS3IwWwqYx0N3Vwtn0e6"
	DefaultPageSize              = 100
	DefaultArticleURLTemplate    = "https://dev.classmethod.jp/articles/{slug}/"
	DefaultAuthorURLTemplate     = "https://dev.classmethod.jp/author/{slug}/"
	DefaultHTTPTimeout           = "30s"

	DefaultNotionBaseURL = "https://api.notion.com"
	DefaultNotionVersion = "2022-06-28"

	DefaultCMSReadInterval        = "300ms"
	DefaultWorkspaceWriteInterval = "500ms"

	DefaultCacheKey  = "data/cached_data.json.gzip"
	DefaultStatusKey = "data/sync_status.json"

	DefaultKeyringService = "articlesync"

	DefaultDatabasePort    = 5432
	DefaultDatabaseSSLMode = "require"
	DefaultDatabaseTable   = "articles"

	// SlugPlaceholder is replaced by the entry slug in URL templates
	SlugPlaceholder = "{slug}"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Contentful  ContentfulConfig  `yaml:"contentful"`
	Notion      NotionConfig      `yaml:"notion"`
	Destination DestinationConfig `yaml:"destination"`
	Planner     PlannerConfig     `yaml:"planner"`
	RateLimits  RateLimitConfig   `yaml:"rateLimits"`
	Storage     StorageConfig     `yaml:"storage"`
	Secrets     SecretsConfig     `yaml:"secrets"`
	Lock        LockConfig        `yaml:"lock"`
	Database    *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry   *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ContentfulConfig describes where blog entries are read from
type ContentfulConfig struct {
	BaseURL     string `yaml:"baseURL,omitempty"`
	SpaceID     string `yaml:"spaceID,omitempty"`
	Environment string `yaml:"environment,omitempty"`

	// EntriesPath is the listing path below the environment
	EntriesPath string `yaml:"entriesPath,omitempty"`

	Locale            string `yaml:"locale,omitempty"`
	ContentType       string `yaml:"contentType,omitempty"`
	AuthorContentType string `yaml:"authorContentType,omitempty"`

	// CategoryID restricts the listing to one reference category
	CategoryID string `yaml:"categoryID,omitempty"`

	PageSize int `yaml:"pageSize,omitempty"`

	// ArticleURLTemplate and AuthorURLTemplate contain the {slug} placeholder
	ArticleURLTemplate string `yaml:"articleURLTemplate,omitempty"`
	AuthorURLTemplate  string `yaml:"authorURLTemplate,omitempty"`

	Timeout string `yaml:"timeout,omitempty"`
}

// NotionConfig describes the Notion API
type NotionConfig struct {
	BaseURL string `yaml:"baseURL,omitempty"`
	Version string `yaml:"version,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// DestinationConfig selects where articles are published
type DestinationConfig struct {
	Type string `yaml:"type,omitempty"`
}

// PlannerConfig selects the planner termination policy
type PlannerConfig struct {
	Mode string `yaml:"mode,omitempty"`
}

// RateLimitConfig holds the minimum interval between calls per channel
type RateLimitConfig struct {
	CMSRead        string `yaml:"cmsRead,omitempty"`
	WorkspaceWrite string `yaml:"workspaceWrite,omitempty"`
}

// StorageConfig describes where the cache and run status are kept
type StorageConfig struct {
	Type      string     `yaml:"type,omitempty"`
	CacheKey  string     `yaml:"cacheKey,omitempty"`
	StatusKey string     `yaml:"statusKey,omitempty"`
	S3        S3Config   `yaml:"s3,omitempty"`
	File      FileConfig `yaml:"file,omitempty"`
}

// S3Config defines the bucket holding the state objects
type S3Config struct {
	Bucket string `yaml:"bucket,omitempty"`

	// Region is an AWS region or "detect" to read it from instance metadata
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"usePathStyle,omitempty"`
}

// FileConfig defines the local directory holding the state objects
type FileConfig struct {
	Path string `yaml:"path,omitempty"`
}

// SecretsConfig describes how credentials are resolved
type SecretsConfig struct {
	Provider       string      `yaml:"provider,omitempty"`
	Region         string      `yaml:"region,omitempty"`
	KeyringService string      `yaml:"keyringService,omitempty"`
	Names          SecretNames `yaml:"names"`
}

// SecretNames are the provider-specific names of each credential
type SecretNames struct {
	ContentfulToken  string `yaml:"contentfulToken,omitempty"`
	NotionToken      string `yaml:"notionToken,omitempty"`
	NotionDatabaseID string `yaml:"notionDatabaseID,omitempty"`
	DatabasePassword string `yaml:"databasePassword,omitempty"`
}

// LockConfig controls the single-run guard
type LockConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// DatabaseConfig defines the PostgreSQL mirror destination
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode,omitempty"`
	Table    string `yaml:"table,omitempty"`

	// AWSRDSIAM replaces the password with a short-lived RDS IAM token
	AWSRDSIAM *AWSRDSIAMConfig `yaml:"awsRdsIam,omitempty"`

	// Password is read from ARTICLESYNC_DATABASE_PASSWORD or the secrets provider, never from the file
	Password string `yaml:"-"`
}

// AWSRDSIAMConfig enables RDS IAM authentication
type AWSRDSIAMConfig struct {
	// Region is an AWS region or "detect" to read it from instance metadata
	Region string `yaml:"region"`
}

// LoadConfig reads the YAML file (if any), applies environment overrides and
// defaults, and validates the result.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyEnv(newEnvViper())
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/articlesync/config.yaml (or the
// first match in $XDG_CONFIG_DIRS) when it exists, and "" otherwise.
func DefaultConfigPath() string {
	path, err := xdg.SearchConfigFile(filepath.Join("articlesync", "config.yaml"))
	if err != nil {
		return ""
	}
	return path
}

// DefaultLockPath returns the lock file location below $XDG_RUNTIME_DIR
func DefaultLockPath() (string, error) {
	return xdg.RuntimeFile(filepath.Join("articlesync", "run.lock"))
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by earlier deployments
	_ = v.BindEnv("storage.s3.bucket", EnvPrefix+"_STORAGE_S3_BUCKET", "BUCKET_NAME_DATA")
	_ = v.BindEnv("secrets.names.contentfultoken",
		EnvPrefix+"_SECRETS_NAMES_CONTENTFULTOKEN", "SSM_PARAMETER_NAME_TOKEN_CONTENTFUL")
	_ = v.BindEnv("secrets.names.notiontoken",
		EnvPrefix+"_SECRETS_NAMES_NOTIONTOKEN", "SSM_PARAMETER_NAME_NOTION_TOKEN")
	_ = v.BindEnv("secrets.names.notiondatabaseid",
		EnvPrefix+"_SECRETS_NAMES_NOTIONDATABASEID", "SSM_PARAMETER_NAME_NOTION_DATABASE_ID")
	_ = v.BindEnv("secrets.region", EnvPrefix+"_SECRETS_REGION", "AWS_REGION")
	return v
}

func (c *Config) applyEnv(v *viper.Viper) {
	strs := map[string]*string{
		"contentful.baseurl":             &c.Contentful.BaseURL,
		"contentful.spaceid":             &c.Contentful.SpaceID,
		"contentful.environment":         &c.Contentful.Environment,
		"contentful.entriespath":         &c.Contentful.EntriesPath,
		"contentful.locale":              &c.Contentful.Locale,
		"contentful.categoryid":          &c.Contentful.CategoryID,
		"notion.baseurl":                 &c.Notion.BaseURL,
		"destination.type":               &c.Destination.Type,
		"planner.mode":                   &c.Planner.Mode,
		"ratelimits.cmsread":             &c.RateLimits.CMSRead,
		"ratelimits.workspacewrite":      &c.RateLimits.WorkspaceWrite,
		"storage.type":                   &c.Storage.Type,
		"storage.cachekey":               &c.Storage.CacheKey,
		"storage.statuskey":              &c.Storage.StatusKey,
		"storage.s3.bucket":              &c.Storage.S3.Bucket,
		"storage.s3.region":              &c.Storage.S3.Region,
		"storage.s3.endpoint":            &c.Storage.S3.Endpoint,
		"storage.file.path":              &c.Storage.File.Path,
		"secrets.provider":               &c.Secrets.Provider,
		"secrets.region":                 &c.Secrets.Region,
		"secrets.names.contentfultoken":  &c.Secrets.Names.ContentfulToken,
		"secrets.names.notiontoken":      &c.Secrets.Names.NotionToken,
		"secrets.names.notiondatabaseid": &c.Secrets.Names.NotionDatabaseID,
		"secrets.names.databasepassword": &c.Secrets.Names.DatabasePassword,
		"lock.path":                      &c.Lock.Path,
	}
	for key, target := range strs {
		if val := v.GetString(key); val != "" {
			*target = val
		}
	}

	if v.IsSet("lock.disabled") {
		c.Lock.Disabled = v.GetBool("lock.disabled")
	}

	if c.Database != nil {
		if pw := v.GetString("database.password"); pw != "" {
			c.Database.Password = pw
		}
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Contentful.BaseURL, DefaultContentfulBaseURL)
	setDefault(&c.Contentful.SpaceID, DefaultContentfulSpaceID)
	setDefault(&c.Contentful.Environment, DefaultContentfulEnvironment)
	setDefault(&c.Contentful.EntriesPath, DefaultContentfulEntriesPath)
	setDefault(&c.Contentful.Locale, DefaultContentfulLocale)
	setDefault(&c.Contentful.ContentType, DefaultContentType)
	setDefault(&c.Contentful.AuthorContentType, DefaultAuthorContentType)
	setDefault(&c.Contentful.CategoryID, DefaultCategoryID)
	setDefault(&c.Contentful.ArticleURLTemplate, DefaultArticleURLTemplate)
	setDefault(&c.Contentful.AuthorURLTemplate, DefaultAuthorURLTemplate)
	setDefault(&c.Contentful.Timeout, DefaultHTTPTimeout)
	if c.Contentful.PageSize == 0 {
		c.Contentful.PageSize = DefaultPageSize
	}

	setDefault(&c.Notion.BaseURL, DefaultNotionBaseURL)
	setDefault(&c.Notion.Version, DefaultNotionVersion)
	setDefault(&c.Notion.Timeout, DefaultHTTPTimeout)

	setDefault(&c.Destination.Type, DestinationNotion)
	setDefault(&c.Planner.Mode, PlannerModeExhaustive)

	setDefault(&c.RateLimits.CMSRead, DefaultCMSReadInterval)
	setDefault(&c.RateLimits.WorkspaceWrite, DefaultWorkspaceWriteInterval)

	setDefault(&c.Storage.Type, StorageTypeS3)
	setDefault(&c.Storage.CacheKey, DefaultCacheKey)
	setDefault(&c.Storage.StatusKey, DefaultStatusKey)

	setDefault(&c.Secrets.Provider, SecretsProviderSSM)
	setDefault(&c.Secrets.KeyringService, DefaultKeyringService)

	if c.Database != nil {
		if c.Database.Port == 0 {
			c.Database.Port = DefaultDatabasePort
		}
		setDefault(&c.Database.SSLMode, DefaultDatabaseSSLMode)
		setDefault(&c.Database.Table, DefaultDatabaseTable)
	}
}

func setDefault(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if _, err := url.ParseRequestURI(c.Contentful.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("contentful.baseURL: %w", err))
	}
	if c.Contentful.PageSize < 1 || c.Contentful.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("contentful.pageSize must be between 1 and 1000, got %d", c.Contentful.PageSize))
	}
	for name, tmpl := range map[string]string{
		"contentful.articleURLTemplate": c.Contentful.ArticleURLTemplate,
		"contentful.authorURLTemplate":  c.Contentful.AuthorURLTemplate,
	} {
		if !strings.Contains(tmpl, SlugPlaceholder) {
			errs = append(errs, fmt.Errorf("%s must contain %s", name, SlugPlaceholder))
		}
	}
	if _, err := url.ParseRequestURI(c.Notion.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("notion.baseURL: %w", err))
	}

	for name, d := range map[string]string{
		"contentful.timeout":        c.Contentful.Timeout,
		"notion.timeout":            c.Notion.Timeout,
		"rateLimits.cmsRead":        c.RateLimits.CMSRead,
		"rateLimits.workspaceWrite": c.RateLimits.WorkspaceWrite,
	} {
		if parsed, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q: %w", name, d, err))
		} else if parsed < 0 {
			errs = append(errs, fmt.Errorf("%s: duration must not be negative", name))
		}
	}

	switch c.Planner.Mode {
	case PlannerModeExhaustive, PlannerModeEarlyStop:
	default:
		errs = append(errs, fmt.Errorf("planner.mode must be %q or %q, got %q",
			PlannerModeExhaustive, PlannerModeEarlyStop, c.Planner.Mode))
	}

	switch c.Storage.Type {
	case StorageTypeS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.s3.bucket is required for s3 storage"))
		}
	case StorageTypeFile:
		if c.Storage.File.Path == "" {
			errs = append(errs, fmt.Errorf("storage.file.path is required for file storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %q or %q, got %q",
			StorageTypeS3, StorageTypeFile, c.Storage.Type))
	}

	switch c.Secrets.Provider {
	case SecretsProviderSSM, SecretsProviderSecretsManager, SecretsProviderEnv, SecretsProviderKeyring:
	default:
		errs = append(errs, fmt.Errorf("secrets.provider %q is not supported", c.Secrets.Provider))
	}
	if c.Secrets.Names.ContentfulToken == "" {
		errs = append(errs, fmt.Errorf("secrets.names.contentfulToken is required"))
	}

	switch c.Destination.Type {
	case DestinationNotion:
		if c.Secrets.Names.NotionToken == "" {
			errs = append(errs, fmt.Errorf("secrets.names.notionToken is required for the notion destination"))
		}
		if c.Secrets.Names.NotionDatabaseID == "" {
			errs = append(errs, fmt.Errorf("secrets.names.notionDatabaseID is required for the notion destination"))
		}
	case DestinationPostgres:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database configuration is required for the postgres destination"))
		}
	default:
		errs = append(errs, fmt.Errorf("destination.type must be %q or %q, got %q",
			DestinationNotion, DestinationPostgres, c.Destination.Type))
	}

	if c.Database != nil {
		if err := c.Database.validate(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, fmt.Errorf("host is required"))
	}
	if d.User == "" {
		errs = append(errs, fmt.Errorf("user is required"))
	}
	if d.Database == "" {
		errs = append(errs, fmt.Errorf("database is required"))
	}
	if d.AWSRDSIAM != nil && d.AWSRDSIAM.Region == "" {
		errs = append(errs, fmt.Errorf("awsRdsIam.region is required"))
	}
	return errors.Join(errs...)
}

// CMSReadInterval returns the parsed cms-read interval
func (c *RateLimitConfig) CMSReadInterval() time.Duration {
	return mustDuration(c.CMSRead)
}

// WorkspaceWriteInterval returns the parsed workspace-write interval
func (c *RateLimitConfig) WorkspaceWriteInterval() time.Duration {
	return mustDuration(c.WorkspaceWrite)
}

// TimeoutDuration returns the parsed request timeout
func (c *ContentfulConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// TimeoutDuration returns the parsed request timeout
func (c *NotionConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// mustDuration parses a duration already checked by validate
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// ConnectionString builds a PostgreSQL URL. scheme is "postgres" for pgx and
// "pgx5" for golang-migrate.
func (d *DatabaseConfig) ConnectionString(scheme string) string {
	u := &url.URL{
		Scheme:   scheme,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}

// ExpandSlug substitutes slug for the placeholder in a URL template
func ExpandSlug(template, slug string) string {
	return strings.ReplaceAll(template, SlugPlaceholder, slug)
}
