package comment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/comments"
)

// Handler serves a post's comment thread
type Handler struct {
	service comments.Service
	logger  *zap.SugaredLogger
}

// NewHandler creates a comment handler
func NewHandler(service comments.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ListResponse wraps a thread in display order
type ListResponse struct {
	Comments []*comments.Comment `json:"comments"`
}

// HandleList returns a post's thread
// GET /api/posts/{postID}/comments
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	thread, err := h.service.ListComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if thread == nil {
		thread = []*comments.Comment{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListResponse{Comments: thread})
}

// HandleCreate appends a comment authored by the caller
// POST /api/posts/{postID}/comments
//
// Request body: { "body": "..." }
// Response: 201 with the stored comment
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var input comments.CreateCommentRequest
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}

	created, err := h.service.CreateComment(r.Context(), userID, middleware.GetUserName(r), chi.URLParam(r, "postID"), input.Body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, created)
}

// HandleDelete removes one of the caller's comments
// DELETE /api/posts/{postID}/comments/{commentID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	err := h.service.DeleteComment(r.Context(), userID, chi.URLParam(r, "postID"), chi.URLParam(r, "commentID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, comments.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, comments.ErrCommentNotFound):
		handlers.WriteError(w, http.StatusNotFound, "CommentNotFound", "Comment not found")

	case errors.Is(err, comments.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "You can only delete your own comments")

	case comments.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	default:
		handlers.WriteInternalError(w, r, h.logger, err)
	}
}
