package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// ClientOption configures Client.
type ClientOption func(*Client)

// Client is a small JSON-over-HTTP client for upstream APIs.
type Client struct {
	hc      *http.Client
	maxBody int64
}

// NewClient creates a client with a 30s timeout and a 32 MiB response cap.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 30 * time.Second},
		maxBody: 32 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals in, posts it to url and decodes the JSON answer into
// out. out may be nil.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.hc.Timeout = timeout
		}
	}
}

// WithMaxBody caps the number of response bytes decoded.
func WithMaxBody(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithTransport overrides the round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) { c.hc.Transport = rt }
}
