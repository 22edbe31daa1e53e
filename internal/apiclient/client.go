// Package apiclient is the single point of contact with the accounting
// backend. Every call runs through the same middleware chain: request id,
// bearer token, error policy, logging, transport.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/repository"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Timeout of zero leaves the transport default in place.
	Timeout    time.Duration
	// UserAgent defaults to DefaultUserAgent.
	UserAgent  string
	HTTPClient *http.Client
	Tokens     repository.TokenStore
	Notifier   notify.Notifier
	Navigator  notify.Navigator
	Logger     *logrus.Logger
}

// DefaultUserAgent identifies the client to the backend.
const DefaultUserAgent = "ledgerdesk"

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a received backend response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into dst. Empty bodies leave dst untouched.
func (r *Response) Decode(dst any) error {
	if dst == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Client sends requests to the accounting backend.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	policy     *Policy
	logger     *logrus.Logger
	handler    Handler
}

// New creates a client. Tokens is required; it is the only source of the
// bearer token and is wiped on session expiry.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	c := &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		policy:     NewPolicy(cfg.Tokens, cfg.Notifier, cfg.Navigator, logger),
		logger:     logger,
	}
	c.handler = Chain(c.send,
		WithRequestID(),
		WithBearerToken(cfg.Tokens, logger),
		WithErrorPolicy(c.policy),
		WithLogging(logger, c.relativePath),
	)
	return c, nil
}

// BaseURL returns the backend base endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// OnSessionExpired registers fn to run whenever a non-login call gets a 401.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.policy.OnSessionExpired(fn)
}

// Do sends r through the middleware chain. Non-2xx responses are returned as
// *Error together with the response.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.handler(req)
}

// Get fetches path and decodes the body into dst.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dst any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, dst)
}

// Post sends body to path and decodes the reply into dst.
func (c *Client) Post(ctx context.Context, path string, body, dst any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, dst)
}

// Put sends body to path and decodes the reply into dst.
func (c *Client) Put(ctx context.Context, path string, body, dst any) error {
	return c.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, dst)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) call(ctx context.Context, r *Request, dst any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

func (c *Client) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	target := c.baseURL.String() + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// send is the innermost handler: it performs the HTTP exchange.
func (c *Client) send(req *http.Request) (*Response, error) {
	path := c.relativePath(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(req.Method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(req.Method, path, fmt.Errorf("read response: %w", err))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, responseError(req.Method, path, resp.StatusCode, body)
	}
	return out, nil
}

// relativePath strips the base URL path so "/api/v1/login" reads as "/login".
func (c *Client) relativePath(req *http.Request) string {
	p := strings.TrimPrefix(req.URL.Path, c.baseURL.Path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
