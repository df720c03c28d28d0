// Package httpclient is a small retrying HTTP client shared by the
// outbound REST integrations. Retries apply exponential backoff and only
// fire for network errors and retryable (transient) status codes; 4xx
// responses are returned to the caller immediately.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPError is a non-2xx response surfaced as an error.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d %s: %s", e.Method, e.URL, e.StatusCode, e.Status, e.Body)
}

// RetryConfig configures the backoff behavior.
type RetryConfig struct {
	MaxRetries           uint64
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	RetryableStatusCodes []int
}

// DefaultRetryConfig provides sensible defaults for transient upstream
// failures.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           3,
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          5 * time.Second,
		Multiplier:           2.0,
		RetryableStatusCodes: []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

func (rc *RetryConfig) retryable(status int) bool {
	for _, code := range rc.RetryableStatusCodes {
		if code == status {
			return true
		}
	}
	return false
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithBaseURL sets the base URL prefixed to request paths.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHeader sets a default header applied to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig replaces the retry configuration.
func WithRetryConfig(rc *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retryConfig = rc
	}
}

// Client is the retrying HTTP client.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	defaultHeaders map[string]string
	retryConfig    *RetryConfig
}

// New creates a Client with the given options.
func New(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		defaultHeaders: map[string]string{
			"Accept": "application/json",
		},
		retryConfig: DefaultRetryConfig(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// RequestOption modifies a single request.
type RequestOption func(*http.Request)

// WithRequestHeader sets a header on one request.
func WithRequestHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithQueryParam adds a query parameter to one request.
func WithQueryParam(key, value string) RequestOption {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Set(key, value)
		req.URL.RawQuery = q.Encode()
	}
}

// GetJSON issues a GET and decodes a 2xx JSON response into v. Non-2xx
// responses return an *HTTPError after retries are exhausted.
func (c *Client) GetJSON(ctx context.Context, path string, v interface{}, options ...RequestOption) error {
	body, err := c.Get(ctx, path, options...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// Get issues a GET with retries and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string, options ...RequestOption) ([]byte, error) {
	requestURL := c.baseURL + path
	if _, err := url.Parse(requestURL); err != nil {
		return nil, fmt.Errorf("invalid request url %q: %w", requestURL, err)
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range c.defaultHeaders {
			req.Header.Set(key, value)
		}
		for _, option := range options {
			option(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			httpErr := &HTTPError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				URL:        requestURL,
				Method:     http.MethodGet,
				Body:       truncate(string(respBody), 512),
			}
			if c.retryConfig.retryable(resp.StatusCode) {
				return httpErr
			}
			return backoff.Permanent(httpErr)
		}

		body = respBody
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retryConfig.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryConfig.InitialInterval
	b.MaxInterval = c.retryConfig.MaxInterval
	b.Multiplier = c.retryConfig.Multiplier
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
