package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRetryTimeout replaces the last raw error once all attempts on
	// retryable failures are exhausted.
	ErrRetryTimeout = errors.New("retry attempts exhausted")

	// ErrBusy rejects a submission while another one from the same user
	// is still in flight.
	ErrBusy = errors.New("submission already in flight")

	// ErrEmptyText rejects blank submissions before any model call.
	ErrEmptyText = errors.New("message text is empty")

	// ErrMalformedReply marks a model reply that is absent or does not
	// match the expected structure.
	ErrMalformedReply = errors.New("malformed model reply")
)

// CallError classifies a failed model call. Status is the HTTP status of
// the inference endpoint; 0 means a transport-level connectivity failure.
type CallError struct {
	Op     string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: rate limiting,
// server-side errors, or no connectivity at all.
func (e *CallError) Retryable() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

// IsRetryable reports whether err should be retried. Anything that is not
// a retryable CallError (other HTTP statuses, malformed JSON, and every
// application-level error) is terminal.
func IsRetryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return false
}
