package llm

import (
	"context"
	"errors"
	"fmt"
)

// ConfigurationError reports missing or invalid provider credentials or
// settings. Retrying cannot help; callers abort before any further calls.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s configuration error: %s", e.Provider, e.Reason)
}

// ServiceError reports a provider-side failure, carrying the provider's
// error detail. Transient instances (rate limits, server errors, network
// failures) are retried with backoff until the attempt budget is exhausted.
type ServiceError struct {
	Provider string
	Status   int // HTTP status, 0 for transport-level failures
	Detail   string
	Attempts int // Attempts consumed before giving up, 0 while retrying
	Err      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s service error", e.Provider)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
func (e *ServiceError) Retryable() bool {
	switch e.Status {
	case 0: // network / transport failure
		return true
	case 408, 429:
		return true
	case 520, 521, 522, 523, 524: // Cloudflare
		return true
	default:
		return e.Status >= 500
	}
}

// IsRetryable classifies an error for the retry loop: configuration errors
// and context cancellation are terminal, service errors consult their status.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Retryable()
	}
	// Unclassified errors get the benefit of the doubt.
	return true
}

// classifyStatus wraps a provider error by HTTP status: auth failures become
// configuration errors, everything else a service error.
func classifyStatus(provider string, status int, detail string, err error) error {
	if status == 401 || status == 403 {
		return &ConfigurationError{
			Provider: provider,
			Reason:   fmt.Sprintf("authentication rejected (status %d): %s", status, detail),
		}
	}
	return &ServiceError{Provider: provider, Status: status, Detail: detail, Err: err}
}
