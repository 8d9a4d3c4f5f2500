// Package httpclient provides the JSON-over-HTTP client used to talk to the
// content source and the workspace destination. Every call made through a
// client configured with a gate is throttled by that gate.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/articlesync/articlesync/internal/gate"
	"github.com/articlesync/articlesync/internal/telemetry"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (32MB)
	MaxResponseSize = 32 * 1024 * 1024

	// maxErrorBodySize bounds how much of an error response ends up in HTTPError.Message
	maxErrorBodySize = 512

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "articlesync/1.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)

	// PostJSON marshals body as JSON, performs an HTTP POST request and returns the response body
	PostJSON(ctx context.Context, url string, body any) ([]byte, error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *DefaultClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithGate throttles every request through g
func WithGate(g *gate.Gate) Option {
	return func(c *DefaultClient) {
		c.gate = g
	}
}

// WithBearerToken authenticates every request with a static bearer token
func WithBearerToken(token string) Option {
	return func(c *DefaultClient) {
		c.token = token
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *DefaultClient) {
		c.headers.Set(key, value)
	}
}

// WithTransport overrides the base round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.transport = rt
	}
}

// WithMetrics records one observation per request
func WithMetrics(m *telemetry.RequestMetrics) Option {
	return func(c *DefaultClient) {
		c.metrics = m
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client    *http.Client
	timeout   time.Duration
	gate      *gate.Gate
	token     string
	headers   http.Header
	transport http.RoundTripper
	metrics   *telemetry.RequestMetrics
}

// NewDefaultClient creates a new HTTP client
func NewDefaultClient(opts ...Option) *DefaultClient {
	c := &DefaultClient{
		timeout:   DefaultTimeout,
		headers:   make(http.Header),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := c.transport
	if c.token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}),
			Base:   transport,
		}
	}

	c.client = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}
	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// PostJSON performs an HTTP POST request with a JSON body
func (c *DefaultClient) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, payload)
}

func (c *DefaultClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	if c.gate == nil {
		return c.roundTrip(ctx, method, url, payload)
	}

	permit, err := c.gate.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer permit.Release()

	return c.roundTrip(ctx, method, url, payload)
}

func (c *DefaultClient) roundTrip(ctx context.Context, method, url string, payload []byte) (body []byte, err error) {
	defer func() {
		c.metrics.RecordRequest(ctx, c.channel(), method, err == nil)
	}()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		message := resp.Status
		if trimmed := strings.TrimSpace(string(detail)); trimmed != "" {
			message = message + ": " + trimmed
		}
		return nil, NewHTTPError(resp.StatusCode, url, message)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// +1 to detect if limit exceeded
	body, err = io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

func (c *DefaultClient) channel() string {
	if c.gate == nil {
		return "ungated"
	}
	return c.gate.Name()
}
