package relationship

import "errors"

var (
	// ErrListNotFound is returned by ListOwner for unknown lists.
	ErrListNotFound = errors.New("relationship: list not found")
	// ErrLookupFailed wraps storage failures.
	ErrLookupFailed = errors.New("relationship: lookup failed")
)
