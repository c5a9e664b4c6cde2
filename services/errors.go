package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the enrollment/progress/review engine. Handlers map
// these onto HTTP status codes; services never wrap them in transport types.
var (
	// ErrDuplicateEnrollment is returned when a student requests enrollment
	// for a course they already have an enrollment for, in any state.
	ErrDuplicateEnrollment = errors.New("enrollment already exists for this course and student")

	// ErrInvalidTransition is returned when an approval-state change is
	// attempted from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid enrollment state transition")

	// ErrNotEnrolled is returned when a review or progress action requires an
	// approved enrollment and none exists.
	ErrNotEnrolled = errors.New("no approved enrollment for this course and student")

	// ErrNotFound is returned when a referenced course, enrollment or review
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned for malformed engine input (rating out of
	// range, unknown activity type, empty comment).
	ErrValidation = errors.New("validation failed")
)

// ValidationError wraps ErrValidation with a field-level reason
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorCode returns the stable machine-readable code for an engine error.
// Used by handlers and by the bulk-approval failure report.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateEnrollment):
		return "DUPLICATE_ENROLLMENT"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrNotEnrolled):
		return "NOT_ENROLLED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
