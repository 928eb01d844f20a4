// Package httpclient provides the tuned HTTP client the API-backed
// loaders share. Loads are synchronous single-shot requests; retry and
// circuit breaking are deliberately left to the caller.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "ragloader/1.0"

// Config holds the shared HTTP client settings
type Config struct {
	Timeout   time.Duration // per-request timeout, default 30s
	UserAgent string        // default "ragloader/1.0"
}

// Client is a thin wrapper over http.Client with JSON helpers
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a client with sensible connection pooling defaults
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// HTTPClient returns the underlying http.Client
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Do executes req with the default headers applied
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// GetJSON issues a GET request and returns the raw response body.
// headers and query may be nil. Non-2xx responses are returned as a
// *StatusError carrying the status code and body.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, query map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.execute(req)
}

// PostJSON marshals body as JSON, issues a POST request and returns the
// raw response body
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.execute(req)
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if len(e.Body) > 200 {
		return fmt.Sprintf("HTTP %d: %s...", e.StatusCode, e.Body[:200])
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the response was a 401 or 403
func (e *StatusError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the response was a 404
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
