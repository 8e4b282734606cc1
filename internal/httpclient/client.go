package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
)

// DefaultUserAgent is sent on every request so sources see a normal browser
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultMaxAttempts = 3
	initialBackoff     = 2 * time.Second
	maxBackoff         = 10 * time.Second
)

// HTTPStatusError reports a non-2xx terminal response
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Fetcher performs retrying GET requests with exponential backoff.
// Redirects are followed by the underlying client.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
	logger      arbor.ILogger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithUserAgent overrides the default desktop user agent
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMaxAttempts overrides the retry budget
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithClient substitutes the underlying HTTP client, used by tests
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher with the given request timeout
func New(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   DefaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		logger:      common.GetLogger().WithPrefix("httpclient"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs the URL and returns the response body. Retries transient
// failures (network errors, 5xx, 429) with exponential backoff and full
// jitter; other 4xx responses fail immediately with HTTPStatusError.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := f.backoff(attempt)
			f.logger.Debug().
				Str("url", url).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := f.fetchOnce(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}

	f.logger.Warn().
		Str("url", url).
		Int("max_attempts", f.maxAttempts).
		Err(lastErr).
		Msg("All fetch attempts exhausted")

	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", url, err)
	}
	return body, nil
}

// backoff returns initialBackoff * 2^(attempt-1) capped at maxBackoff,
// with full jitter.
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := initialBackoff << (attempt - 1)
	if d > maxBackoff {
		d = maxBackoff
	}
	return time.Duration(rand.Int63n(int64(d)) + 1)
}

// isRetryable reports whether the failure is worth another attempt.
// 5xx and 429 are retryable; other status errors are terminal.
func isRetryable(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// NXDOMAIN is permanent; other resolver failures are worth retrying
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsNotFound
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
