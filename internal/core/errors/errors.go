// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors.
var (
	// ErrSMTPNotConfigured indicates the email channel was built without an SMTP host.
	ErrSMTPNotConfigured = errors.New("smtp host not configured")

	// ErrBotTokenMissing indicates a Telegram send was attempted without a bot token.
	ErrBotTokenMissing = errors.New("telegram bot token not configured")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Delivery errors.
var (
	// ErrNoJobsForContact indicates the per-contact job selection was empty.
	ErrNoJobsForContact = errors.New("no jobs available for contact")

	// ErrNoRecipient indicates a contact carries no address for the channel.
	ErrNoRecipient = errors.New("contact has no recipient for channel")

	// ErrProvider indicates the upstream provider rejected a request.
	ErrProvider = errors.New("provider error")
)

// Repository errors.
var (
	// ErrContactNotFound indicates no contact matched the lookup.
	ErrContactNotFound = errors.New("contact not found")

	// ErrLinkNotPersisted indicates a chat id update did not survive the re-read.
	ErrLinkNotPersisted = errors.New("telegram chat id not persisted")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Access errors.
var (
	// ErrUnauthorized indicates a missing or wrong access token.
	ErrUnauthorized = errors.New("unauthorized")
)
