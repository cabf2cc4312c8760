package llm

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/paperscan/paperscan/internal/logger"
)

// Client wraps a Provider with bounded retries, exponential backoff with
// jitter, and optional rate limiting. The call blocks until a reply or a
// terminal failure.
type Client struct {
	provider Provider
	attempts uint
	delay    time.Duration
	limiter  *RateLimiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithAttempts sets the total attempt budget (first call included).
func WithAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.attempts = uint(n)
		}
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithRateLimit caps outgoing requests per minute; 0 disables limiting.
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = NewRateLimiter(requestsPerMinute)
		}
	}
}

// NewClient creates a retrying client around a provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the wrapped provider.
func (c *Client) Provider() Provider { return c.provider }

// Complete sends a completion request, retrying transient provider failures
// with exponential backoff until the attempt budget is exhausted.
// Configuration errors and context cancellation are never retried.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	requestID := uuid.New().String()
	log := logger.With("request_id", requestID, "provider", c.provider.Name())

	var resp Response
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			var err error
			resp, err = c.provider.Complete(ctx, req)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(c.delay/2),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("provider call failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			svcErr.Attempts = attempts
		}
		log.Error("provider call failed", "attempts", attempts, "error", err)
		return Response{}, err
	}

	log.Debug("provider call complete",
		"attempts", attempts,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return resp, nil
}
