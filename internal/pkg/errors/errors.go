package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing records.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingIdentity is returned by operations that need a caller
	// identity in their meta and did not receive one.
	ErrMissingIdentity = errors.New("missing identity")
	// ErrConflict is returned when a write collides with an existing record.
	ErrConflict = errors.New("conflict")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
