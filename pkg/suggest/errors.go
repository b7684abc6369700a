package suggest

import (
	"context"
	"errors"
)

var (
	// ErrCanceled is returned when a fetch is superseded or the text went blank.
	ErrCanceled = errors.New("suggestion fetch canceled")

	// ErrMalformedResponse indicates a provider reply without a messages field.
	ErrMalformedResponse = errors.New("provider response has no messages")

	// ErrRecoverable marks a provider failure that may succeed on the next
	// keystroke: timeouts, rate limiting, 5xx.
	ErrRecoverable = errors.New("recoverable provider error")

	// ErrFatal marks a provider failure that will keep failing: bad
	// credentials, unknown template, malformed request.
	ErrFatal = errors.New("fatal provider error")
)

// ProviderError classifies a provider failure.
type ProviderError struct {
	Underlying error
	Retryable  bool
	Message    string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Message != "" && e.Underlying != nil:
		return e.Message + ": " + e.Underlying.Error()
	case e.Message != "":
		return e.Message
	case e.Underlying != nil:
		return e.Underlying.Error()
	}
	return "provider error"
}

// Unwrap exposes both the classification and the cause to errors.Is.
func (e *ProviderError) Unwrap() []error {
	class := ErrFatal
	if e.Retryable {
		class = ErrRecoverable
	}
	if e.Underlying == nil {
		return []error{class}
	}
	return []error{class, e.Underlying}
}

// NewRecoverableError wraps err as a recoverable provider failure.
func NewRecoverableError(err error, message string) error {
	return &ProviderError{Underlying: err, Retryable: true, Message: message}
}

// NewFatalError wraps err as a fatal provider failure.
func NewFatalError(err error, message string) error {
	return &ProviderError{Underlying: err, Retryable: false, Message: message}
}

// IsRecoverable reports whether err is a recoverable provider failure.
func IsRecoverable(err error) bool { return errors.Is(err, ErrRecoverable) }

// IsFatal reports whether err is a fatal provider failure.
func IsFatal(err error) bool { return errors.Is(err, ErrFatal) }

// IsCanceled reports whether err stems from cancellation rather than a
// provider failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled)
}
