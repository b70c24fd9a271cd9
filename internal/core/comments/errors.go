package comments

import "errors"

var (
	// ErrCommentNotFound indicates the requested comment doesn't exist
	ErrCommentNotFound = errors.New("comment not found")

	// ErrPostNotFound indicates the parent post doesn't exist
	ErrPostNotFound = errors.New("post not found")

	// ErrContentTooLong indicates comment content exceeds 10000 graphemes
	ErrContentTooLong = errors.New("comment content exceeds 10000 graphemes")

	// ErrContentEmpty indicates comment content is empty
	ErrContentEmpty = errors.New("comment content is required")

	// ErrNotAuthorized indicates the user is not authorized to perform this action
	ErrNotAuthorized = errors.New("not authorized")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrPostNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrContentEmpty)
}
