package core

import (
	"errors"
	"fmt"
)

// Normalizer errors. These are local input-validation failures: they are
// surfaced to the user immediately and never reach the transport layer.
var (
	// ErrUnresolvedLocation means a free-text location could not be
	// resolved to a canonical code by any of the normalizer's steps.
	ErrUnresolvedLocation = errors.New("unresolved location")

	// ErrInvalidDateRange means a date field was malformed or a range
	// had its start after its end.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// UnresolvedLocationError wraps ErrUnresolvedLocation with the text that
// failed to resolve so callers can echo it back to the user.
func UnresolvedLocationError(text string) error {
	return fmt.Errorf("%w: %q", ErrUnresolvedLocation, text)
}
