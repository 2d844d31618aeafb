// Package httpclient provides a shared HTTP client with retry, per-host
// pacing, and response size limits for source fetching.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// RetryPolicy defines retry behavior with exponential backoff
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	RetryableStatusCodes []int
}

// NewRetryPolicy creates a default retry policy
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatusCodes: []int{
			408, // Request Timeout
			429, // Too Many Requests
			500, // Internal Server Error
			502, // Bad Gateway
			503, // Service Unavailable
			504, // Gateway Timeout
		},
	}
}

// ShouldRetry checks if an attempt should be retried based on attempt count,
// status code, and error type.
func (p *RetryPolicy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}

	if statusCode > 0 {
		if p.isRetryableStatusCode(statusCode) {
			return true
		}
		if statusCode >= 400 && statusCode < 500 {
			return false // Client errors (except timeout/rate limit) are not retryable
		}
	}

	if err != nil {
		return isRetryableError(err)
	}

	return false
}

// CalculateBackoff calculates the backoff duration with exponential backoff
// and jitter (±25%).
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter

	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}

	return time.Duration(backoff)
}

func (p *RetryPolicy) isRetryableStatusCode(statusCode int) bool {
	for _, code := range p.RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// isRetryableError checks if an error is retryable (timeouts, connection
// errors, context deadline exceeded).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
}

// Client is a retrying HTTP client with per-host request pacing and a
// response body size cap.
type Client struct {
	httpClient   *http.Client
	policy       *RetryPolicy
	logger       arbor.ILogger
	userAgent    string
	maxBodySize  int
	requestDelay time.Duration

	mu          sync.Mutex
	lastRequest map[string]time.Time
}

// NewClient creates a retrying client from fetcher configuration
func NewClient(config *common.FetcherConfig, logger arbor.ILogger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:   NewDefaultHTTPClient(timeout),
		policy:       NewRetryPolicy(config.MaxRetries),
		logger:       logger,
		userAgent:    config.UserAgent,
		maxBodySize:  config.MaxBodySize,
		requestDelay: config.RequestDelay,
		lastRequest:  map[string]time.Time{},
	}
}

// Get fetches a URL, retrying transient failures, and returns the response
// body capped at the configured size.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	if err := c.waitForHost(ctx, parsed.Host); err != nil {
		return nil, err
	}

	var body []byte
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		var statusCode int
		body, statusCode, lastErr = c.doGet(ctx, rawURL)
		if lastErr == nil && !c.policy.isRetryableStatusCode(statusCode) {
			return body, nil
		}

		if !c.policy.ShouldRetry(attempt, statusCode, lastErr) {
			break
		}

		if attempt < c.policy.MaxAttempts-1 {
			backoff := c.policy.CalculateBackoff(attempt)
			c.logger.Debug().
				Str("url", rawURL).
				Int("attempt", attempt+1).
				Int("status_code", statusCode).
				Err(lastErr).
				Dur("backoff", backoff).
				Msg("Retrying fetch after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fetch failed for %s", rawURL)
	}
	return nil, lastErr
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	reader := io.Reader(resp.Body)
	if c.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, int64(c.maxBodySize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// waitForHost enforces the minimum delay between requests to the same host
func (c *Client) waitForHost(ctx context.Context, host string) error {
	if c.requestDelay <= 0 {
		return nil
	}

	c.mu.Lock()
	last, ok := c.lastRequest[host]
	now := time.Now()
	var wait time.Duration
	if ok {
		elapsed := now.Sub(last)
		if elapsed < c.requestDelay {
			wait = c.requestDelay - elapsed
		}
	}
	c.lastRequest[host] = now.Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
