package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
)

// ProviderError is a rejection reported by the upstream provider.
type ProviderError struct {
	Provider    string
	Status      int
	Description string
	// RetryAfter is the provider-requested wait before the next attempt.
	RetryAfter time.Duration
	// Permanent marks errors that will not succeed on retry.
	Permanent bool
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: http %d", e.Provider, e.Status)
	}

	return fmt.Sprintf("%s: %s (http %d)", e.Provider, e.Description, e.Status)
}

func (e *ProviderError) Unwrap() error {
	return apperrors.ErrProvider
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) ||
		errors.Is(err, apperrors.ErrBotTokenMissing) ||
		errors.Is(err, apperrors.ErrSMTPNotConfigured) ||
		errors.Is(err, apperrors.ErrNoRecipient) {
		return false
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return !perr.Permanent
	}

	return true
}

// retryAfter returns the provider-requested wait carried by err, if any.
func retryAfter(err error) time.Duration {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RetryAfter
	}

	return 0
}
