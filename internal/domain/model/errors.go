package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds for engine failures. A missing rate card is not an error.
var (
	// ErrInvalidRequest marks caller errors: malformed ranges, missing fields, bad windows.
	ErrInvalidRequest = errors.New("invalid cost request")
	// ErrDependency marks a failed rate-card or holiday lookup. Callers may retry.
	ErrDependency = errors.New("dependency unavailable")
)

// Invalid builds an ErrInvalidRequest with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// DependencyFailure wraps err from the named dependency as ErrDependency.
func DependencyFailure(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependency, name, err)
}
