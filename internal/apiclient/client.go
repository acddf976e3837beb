// Package apiclient talks to the villa REST API.
//
// Every response body is an envelope: {"data": ...} on success and
// {"errors": [...]} on failure. Transport failures surface as *NetworkError
// and error statuses as *HTTPError so callers can word them differently.
// Nothing is retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// Client is a villa API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every call. Zero leaves calls bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	op          string
	kind        Kind
	details     string
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Errors []string `json:"errors"`
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("villa api: %s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("villa api call failed",
			zap.String("op", cl.op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return &NetworkError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: cl.op, Err: err}
	}

	c.logger.Debug("villa api call",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		httpErr := &HTTPError{Op: cl.op, Status: resp.StatusCode, Kind: cl.kind, Details: cl.details}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			httpErr.Messages = env.Errors
		}
		return httpErr
	}

	if out == nil {
		return nil
	}
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("villa api: %s: decode response: %w", cl.op, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("villa api: %s: response has no data", cl.op)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("villa api: %s: decode data: %w", cl.op, err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}
