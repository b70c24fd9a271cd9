package vote

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/votes"
)

// CastVoteHandler handles vote mutations
type CastVoteHandler struct {
	service votes.Service
	logger  *zap.SugaredLogger
}

// NewCastVoteHandler creates a new cast vote handler
func NewCastVoteHandler(service votes.Service, logger *zap.SugaredLogger) *CastVoteHandler {
	return &CastVoteHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCastVote sets the caller's vote on a post
// POST /api/posts/{postID}/vote
//
// Request body: { "direction": "up" | "down" | "none" }
// Response: { "upvotes": 3, "downvotes": 1, "callerDirection": "up" }
func (h *CastVoteHandler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var input votes.CastVoteRequest
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.CastVote(r.Context(), userID, chi.URLParam(r, "postID"), input.Direction)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, result)
}

func (h *CastVoteHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, votes.ErrSubjectNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, votes.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")

	case votes.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		handlers.WriteInternalError(w, r, h.logger, err)
	}
}
