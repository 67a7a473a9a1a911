package api

import (
	"errors"
	"fmt"
)

// Kind categorizes request failures. The pipeline's retry decision hangs
// entirely on this classification.
type Kind string

const (
	// KindInvalidRequest is a bad URL or body that failed to encode.
	// Dropped and logged, never retried.
	KindInvalidRequest Kind = "INVALID_REQUEST"

	// KindTransport is a connectivity failure. The server never saw the
	// request, so nothing is queued; the record is surfaced as failed and
	// the next successful call provides the retry opportunity.
	KindTransport Kind = "TRANSPORT"

	// KindServerRejected is a non-2xx status. The only retryable kind.
	KindServerRejected Kind = "SERVER_REJECTED"

	// KindDecodeFailure is a malformed body on a success status. Treated
	// as a local failure, not retried.
	KindDecodeFailure Kind = "DECODE_FAILURE"
)

// Error is the typed failure returned by every client call.
type Error struct {
	Kind   Kind
	Path   string
	Status int // HTTP status for KindServerRejected, zero otherwise
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Kind, e.Path, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failed record should be queued for a later
// bulk drain. Only a server-side rejection qualifies: the server made a
// decision, and the idempotent record id makes the resend safe.
func (e *Error) Retryable() bool { return e.Kind == KindServerRejected }

// IsRetryable reports whether err (possibly wrapped) is a retryable API
// failure.
func IsRetryable(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Retryable()
}

// KindOf extracts the failure kind, or "" for non-API errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
