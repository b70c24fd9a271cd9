package votes

import "errors"

var (
	// ErrSubjectNotFound indicates the post being voted on doesn't exist
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrInvalidDirection indicates the vote direction is not "up", "down" or "none"
	ErrInvalidDirection = errors.New("invalid vote direction: must be 'up', 'down' or 'none'")

	// ErrInvalidSubject indicates the post ID is empty or malformed
	ErrInvalidSubject = errors.New("invalid subject")

	// ErrNotAuthorized indicates the caller is not authorized to perform this action
	ErrNotAuthorized = errors.New("not authorized")
)

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDirection) || errors.Is(err, ErrInvalidSubject)
}
