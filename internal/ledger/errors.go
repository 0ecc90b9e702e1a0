package ledger

import "errors"

// Sentinel errors returned by the ledger.  Handlers translate them into
// HTTP responses; none of them carries storage internals.
var (
	// ErrCapacityExceeded is returned by Reserve when the travel unit does
	// not have enough free seats.  Nothing is mutated.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidRelease is returned by Cancel when more seats are released
	// than are currently booked.  Nothing is mutated.
	ErrInvalidRelease = errors.New("invalid release")

	// ErrNotFound is returned when the travel unit is unknown.
	ErrNotFound = errors.New("travel unit not found")

	// ErrStorageUnavailable is returned when the backing store keeps failing
	// after the bounded retry budget, or fails in a way that is not retryable.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidRequest is returned for malformed input such as a
	// non-positive seat count or an empty travel unit id.
	ErrInvalidRequest = errors.New("invalid request")
)

// transientError marks a store failure that happened before the write
// reached the backend, so the same operation may be attempted again.
type transientError struct{ err error }

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so that the ledger retries the operation.  Stores
// must only use it for failures where the write was certainly not applied
// (dial errors, bad pooled connections).  Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err (or anything it wraps) was marked with
// Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// isDomain reports whether err is one of the business outcomes that are
// passed to the caller as-is.
func isDomain(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInvalidRelease) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidRequest)
}
