package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const MethodGet = http.MethodGet

// DefaultFetchTimeout bounds a single fetch attempt.
const DefaultFetchTimeout = 15 * time.Second

// ClientOption configures Client.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
}

// Client is an HTTP client whose Fetch classifies every response into an Outcome.
type Client struct {
	timeout   time.Duration
	headers   map[string]string
	transport http.RoundTripper
	client    *http.Client
}

// NewClient creates a new HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout: DefaultFetchTimeout,
		headers: map[string]string{"Accept": "application/json"},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Transport: c.transport}
	}
	return c
}

// Timeout returns the per-attempt deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

// SendRequest sends an HTTP request and returns response.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// Fetch performs one GET against rawURL bounded by the client timeout and classifies
// the result. A 2xx response carries the raw JSON body.
func (c *Client) Fetch(ctx context.Context, rawURL string) Outcome[[]byte] {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.SendRequest(attemptCtx, &RequestOptions{
		Method:  MethodGet,
		URL:     rawURL,
		Headers: c.headers,
	})
	if err != nil {
		return Fail[[]byte](c.classifyError(ctx, attemptCtx, err), 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Fail[[]byte](OutcomeNotFound, resp.StatusCode, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Fail[[]byte](OutcomeRateLimited, resp.StatusCode, nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Fail[[]byte](OutcomeHTTPError, resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail[[]byte](c.classifyError(ctx, attemptCtx, err), resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if !json.Valid(body) {
		return Fail[[]byte](OutcomeNetworkError, resp.StatusCode, errors.New("response body is not valid json"))
	}
	return OK(body)
}

// classifyError separates the caller giving up from the attempt deadline firing.
func (c *Client) classifyError(parent, attempt context.Context, err error) OutcomeKind {
	switch {
	case parent.Err() != nil:
		return OutcomeCanceled
	case errors.Is(attempt.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeNetworkError
	}
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	c.addHeaders(req, opts.Headers)

	return req, nil
}

func (c *Client) addHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every fetch.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// WithTransport sets the underlying round tripper (recorders, proxies).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithHTTPClient replaces the underlying http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}
