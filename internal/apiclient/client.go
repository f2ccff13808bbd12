// Package apiclient fetches series, dimensions and snapshots from the statistics REST API.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/huangsam/statdash/internal/contract"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-API-Key"

// maxErrorBody bounds how much of an error response is kept in HTTPError.
const maxErrorBody = 512

// ClientOption represents a function that can modify the Client.
type ClientOption func(*Client)

// HTTPError represents an error returned from an HTTP request.
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

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxElapsedTime       time.Duration
	RetryableStatusCodes []int
}

// DefaultRetryConfig provides sensible defaults for retries.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           3,
		InitialInterval:      200 * time.Millisecond,
		MaxInterval:          5 * time.Second,
		Multiplier:           2.0,
		MaxElapsedTime:       30 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// Client talks to the statistics API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	defaultHeaders map[string]string
	retryConfig    *RetryConfig
	limiter        *rate.Limiter
	logger         *zap.Logger
}

var _ contract.SeriesClient = &Client{} // Compile-time check

// New creates a Client with the given options.
func New(options ...ClientOption) *Client {
	client := &Client{
		httpClient:     &http.Client{Timeout: contract.DefaultTimeout},
		baseURL:        contract.DefaultAPIURL,
		defaultHeaders: map[string]string{"Accept": "application/json"},
		retryConfig:    DefaultRetryConfig(),
		logger:         zap.NewNop(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// NewFromConfig creates a Client from the validated command configuration.
func NewFromConfig(cfg *contract.Config) *Client {
	return New(
		WithBaseURL(cfg.APIURL),
		WithTimeout(cfg.Timeout),
		WithAPIKey(cfg.APIKey),
		WithRateLimit(cfg.RateLimit),
		WithLogger(contract.Logger()),
	)
}

// WithBaseURL sets the base URL for all requests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout sets the timeout for each attempt.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryConfig sets the retry configuration. Nil disables retries.
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// WithDefaultHeader adds a default header to all requests.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithAPIKey sends the key on every request. An empty key is ignored.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.defaultHeaders[APIKeyHeader] = key
		}
	}
}

// WithRateLimit caps requests per second across all goroutines. Zero disables the limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := max(int(perSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// getJSON performs a GET with retries and decodes the JSON body into target.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	start := time.Now()
	attempts := 0
	var body []byte

	operation := func() error {
		attempts++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		for key, value := range c.defaultHeaders {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 400 {
			httpErr := &HTTPError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				URL:        fullURL,
				Method:     http.MethodGet,
				Body:       truncateBody(data),
			}
			if c.isRetryable(resp.StatusCode) {
				return httpErr
			}
			return backoff.Permanent(httpErr)
		}

		body = data
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if c.retryConfig != nil && c.retryConfig.MaxRetries > 0 {
		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = c.retryConfig.InitialInterval
		expBackoff.MaxInterval = c.retryConfig.MaxInterval
		expBackoff.Multiplier = c.retryConfig.Multiplier
		expBackoff.MaxElapsedTime = c.retryConfig.MaxElapsedTime
		policy = backoff.WithMaxRetries(expBackoff, uint64(c.retryConfig.MaxRetries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		c.logger.Warn("HTTP request failed",
			zap.String("url", fullURL),
			zap.Int("attempts", attempts),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return err
	}

	c.logger.Debug("HTTP request successful",
		zap.String("url", fullURL),
		zap.Int("attempts", attempts),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)))

	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", fullURL, err)
	}
	return nil
}

func (c *Client) isRetryable(statusCode int) bool {
	return c.retryConfig != nil && slices.Contains(c.retryConfig.RetryableStatusCodes, statusCode)
}

// truncateBody caps the error body at maxErrorBody bytes without splitting a rune.
func truncateBody(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
