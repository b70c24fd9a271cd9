package post

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/core/posts"
)

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, posts.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized",
			"You can only modify your own posts")

	case posts.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		handlers.WriteInternalError(w, r, logger, err)
	}
}
