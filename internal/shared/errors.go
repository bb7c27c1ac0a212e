package shared

import "errors"

// Error kinds surfaced to callers. Domain packages wrap these so that the
// transport layer can classify failures without knowing every sentinel.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the request violates a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrReferenced indicates a delete blocked by dependent records.
	ErrReferenced = errors.New("still referenced")
	// ErrConflict indicates a lost concurrency race; callers may retry.
	ErrConflict = errors.New("concurrent modification")
	// ErrInvalidState indicates the document status forbids the operation.
	ErrInvalidState = errors.New("invalid state")
)

// IsRetryable reports whether resubmitting the request may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
