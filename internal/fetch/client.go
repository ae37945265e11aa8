package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default request headers. Many origins gate stream responses on
// header-based validation, so every request carries them unless overridden.
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	HeaderUserAgent = "User-Agent"
	HeaderOrigin    = "Origin"
	HeaderReferer   = "Referer"
)

// DefaultTimeout bounds a single request including body read
const DefaultTimeout = 30 * time.Second

// Fetcher is the HTTP capability both engines depend on
type Fetcher interface {
	// Get fetches the full body as bytes. Intended for small documents:
	// detail pages, manifests, keys.
	Get(ctx context.Context, url string) ([]byte, error)

	// GetStream returns the response body as a stream. Intended for segment
	// bodies, which must never be buffered whole in memory. The caller
	// closes the returned reader.
	GetStream(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Client is the default Fetcher over net/http
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// Option configures a Client
type Option func(*Client)

// WithHeaders sets extra request headers (Origin, Referer, overriding User-Agent)
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new HTTP fetch client
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers: map[string]string{
			HeaderUserAgent: DefaultUserAgent,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get fetches the full body as bytes
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// GetStream returns the response body as a stream plus the declared
// content length (-1 when unknown)
func (c *Client) GetStream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	body, length, err := c.get(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	return body, length, nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return resp.Body, resp.ContentLength, nil
}
