package fetch

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload means an upstream body had the wrong shape
// entirely. It is never retried against the same transport; the executor
// moves on to the next transport immediately.
var ErrMalformedPayload = errors.New("malformed upstream payload")

// TransientError marks a failure worth retrying against the same
// transport: network errors and retryable HTTP statuses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient transport error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable against the same transport.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// SearchUnavailableError is returned when every transport, primary and
// fallback alike, has been exhausted. Cause carries the last underlying
// error for diagnostics.
type SearchUnavailableError struct {
	Cause error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("search unavailable: %v", e.Cause)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Cause
}

// IsSearchUnavailable reports whether err is a fully-exhausted search.
func IsSearchUnavailable(err error) bool {
	var se *SearchUnavailableError
	return errors.As(err, &se)
}
