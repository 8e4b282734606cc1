package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/interfaces"
)

// RetryConfig defines retry behavior for provider rate limit handling
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewDefaultRetryConfig returns retry settings tuned for per-minute quota
// windows on the hosted model APIs.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    15 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// IsRateLimitError checks if an error indicates provider rate limiting.
// Matches 429 status codes, RESOURCE_EXHAUSTED, and quota messages.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error
// message. Returns 0 when no delay is present.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the wait before the given retry attempt. An
// API-suggested delay takes precedence over the configured base.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	backoff := float64(base)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}

	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	return time.Duration(backoff)
}

// completeWithRetry calls the provider, retrying only on rate limit errors.
// Other failures surface immediately so the orchestrator can fall back to
// the next provider.
func completeWithRetry(ctx context.Context, provider interfaces.Provider, req *interfaces.CompletionRequest, cfg *RetryConfig, logger arbor.ILogger) (*interfaces.CompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		resp, err := provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsRateLimitError(err) {
			return nil, err
		}

		if attempt < cfg.MaxRetries {
			backoff := cfg.CalculateBackoff(attempt, ExtractRetryDelay(err))
			logger.Warn().
				Str("provider", provider.Name()).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(err).
				Msg("Rate limited, waiting before retry")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, lastErr
}
