package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/obsidianstack/hostpager/setup/internal/config"
)

const (
	defaultTimeout = 30 * time.Second

	headerAPIKey = "DD-API-KEY"
	headerAppKey = "DD-APPLICATION-KEY"

	// maxBody caps how much of a response body is read.
	maxBody = 64 << 10
)

// Client talks to the Datadog v1 API.
type Client struct {
	cfg     config.Datadog
	relay   config.Relay
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base transport under the key-injecting round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = &keyRoundTripper{base: rt, cfg: c.cfg} }
}

// WithTimeout overrides the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client. relay supplies the webhook target URL and optional
// shared secret.
func New(cfg config.Datadog, relay config.Relay, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		relay:   relay,
		timeout: defaultTimeout,
		http: &http.Client{
			Transport: &keyRoundTripper{base: http.DefaultTransport, cfg: cfg},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// keyRoundTripper injects the Datadog API and application keys into every
// outgoing request.
type keyRoundTripper struct {
	base http.RoundTripper
	cfg  config.Datadog
}

func (t *keyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(headerAPIKey, t.cfg.APIKey)
	req.Header.Set(headerAppKey, t.cfg.AppKey)
	return t.base.RoundTrip(req)
}

type response struct {
	status int
	body   []byte
}

// post sends body as JSON to path under the API base URL.
func (c *Client) post(ctx context.Context, path string, body any) (*response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.cfg.APIURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	slog.Debug("datadog: request complete",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &response{status: resp.StatusCode, body: raw}, nil
}
