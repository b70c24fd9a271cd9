package commentstore

import (
	"errors"
	"fmt"

	"Pixboard/internal/client/keylock"
	"Pixboard/internal/core/comments"
)

// ErrValidation is matched by every locally rejected input. No request is sent.
var ErrValidation = errors.New("invalid comment operation")

var (
	ErrEmptyBody   = fmt.Errorf("%w: %w", ErrValidation, comments.ErrContentEmpty)
	ErrBodyTooLong = fmt.Errorf("%w: %w", ErrValidation, comments.ErrContentTooLong)

	// ErrUnknownComment is returned when deleting a comment that isn't in the
	// thread or hasn't been confirmed by the server yet
	ErrUnknownComment = fmt.Errorf("%w: unknown or unconfirmed comment", ErrValidation)

	// ErrPostRemoved is returned for posts the session has deleted
	ErrPostRemoved = fmt.Errorf("%w: post was deleted", ErrValidation)

	// ErrDeleteInProgress is returned while another delete in the same thread is in flight
	ErrDeleteInProgress = fmt.Errorf("delete already in progress: %w", keylock.ErrConflictRejected)
)
