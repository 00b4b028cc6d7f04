// Package github is a minimal client for the slice of the GitHub REST API
// that EventCall persists through: Contents, Git Trees, Git Blobs, Issues,
// and repository_dispatch. All durable application state (events, RSVPs,
// user profiles) lives as JSON files in a single repository, so this package
// is the storage driver for the whole system.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/logging"
)

const defaultBaseURL = "https://api.github.com"

// TokenProvider supplies the token attached to outgoing requests and is
// notified when a request exhausts the API rate limit, so rotation can take
// effect on the next attempt.
type TokenProvider interface {
	Token() (string, error)
	OnRateLimited()
}

// StaticToken is a TokenProvider for a single fixed token (the proxy holds
// exactly one server-side token).
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }
func (t StaticToken) OnRateLimited()         {}

// RetryConfig controls the backoff applied to retryable failures: network
// errors, HTTP 429, and HTTP 403 with the rate-limit budget exhausted.
//
// The delay before retry k (1-indexed) is BaseDelay * 2^(k-1) plus, when
// Jitter is enabled, a uniform random addition in [0, BaseDelay/2).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// DefaultRetryConfig mirrors the defaults the browser clients shipped with.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 1 * time.Second, Jitter: true}
}

// Options configures a Client.
type Options struct {
	Owner string
	Repo  string

	// BaseURL overrides the GitHub API root (tests point it at httptest).
	BaseURL string

	HTTPClient *http.Client
	Tokens     TokenProvider
	Retry      RetryConfig
	Logger     logging.Logger

	// AttemptTimeout bounds each individual HTTP attempt. The retry budget
	// is on top of this. Zero means 15s.
	AttemptTimeout time.Duration
}

// Client wraps HTTP access to the GitHub API with retry, backoff, token
// attachment, and per-endpoint in-flight bookkeeping.
type Client struct {
	baseURL        string
	owner          string
	repo           string
	http           *http.Client
	tokens         TokenProvider
	retry          RetryConfig
	logger         logging.Logger
	attemptTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]int

	// test seams
	randFloat func() float64
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		owner:          opts.Owner,
		repo:           opts.Repo,
		http:           opts.HTTPClient,
		tokens:         opts.Tokens,
		retry:          opts.Retry,
		logger:         opts.Logger,
		attemptTimeout: opts.AttemptTimeout,
		inflight:       make(map[string]int),
		randFloat:      rand.Float64,
		sleep:          sleepCtx,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryConfig()
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.attemptTimeout == 0 {
		c.attemptTimeout = 15 * time.Second
	}
	return c
}

// RepoPath returns the API path for this client's repository, e.g.
// RepoPath("issues") -> "/repos/owner/repo/issues".
func (c *Client) RepoPath(parts ...string) string {
	p := fmt.Sprintf("/repos/%s/%s", c.owner, c.repo)
	if len(parts) > 0 {
		p = p + "/" + strings.Join(parts, "/")
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay computes the delay after the given 0-indexed failed attempt.
func (c *Client) backoffDelay(attempt int) time.Duration {
	d := c.retry.BaseDelay << attempt
	if c.retry.Jitter {
		d += time.Duration(c.randFloat() * float64(c.retry.BaseDelay) / 2)
	}
	return d
}

// retryable reports whether a response warrants a retry: HTTP 429, or
// HTTP 403 with the x-ratelimit-remaining header at zero. The second return
// value reports whether the failure was a rate-limit signal.
func retryable(resp *http.Response) (bool, bool) {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, true
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("x-ratelimit-remaining") == "0" {
		return true, true
	}
	return false, false
}

// Do performs an API call with retry and backoff. path is relative to the
// API root (use RepoPath). body, when non-nil, is JSON-encoded; out, when
// non-nil, receives the decoded JSON response. label names the operation in
// diagnostics and in the final error.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any, label string) error {
	endpointKey := method + " " + path

	c.mu.Lock()
	c.inflight[endpointKey]++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inflight[endpointKey]--
		c.mu.Unlock()
	}()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", label, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt - 1)
			c.logger.Debug(ctx, "retrying", "label", label, "attempt", attempt+1, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
		}

		err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return fmt.Errorf("%s: %w", label, err)
		}
		if isRateLimited(err) && c.tokens != nil {
			c.tokens.OnRateLimited()
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", label, c.retry.MaxAttempts, lastErr)
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "token "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
		}
		return nil
	}

	_, rateLimited := retryable(resp)
	return newAPIError(resp, rateLimited)
}

// InFlight returns the number of concurrently executing calls for an
// endpoint key ("METHOD /path"). Exposed for diagnostics and tests.
func (c *Client) InFlight(endpointKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[endpointKey]
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }
