package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/posts"
)

// HandleUpdate applies a partial edit to one of the caller's posts
// PUT /api/posts/{postID}
//
// Request body: any subset of { "title", "description", "category", "tags" }
// Response: the hydrated post after the edit
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var update posts.PostUpdate
	if !handlers.DecodeJSON(w, r, &update) {
		return
	}

	updated, err := h.service.UpdatePost(r.Context(), userID, chi.URLParam(r, "postID"), update)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete removes one of the caller's posts with its thread and votes
// DELETE /api/posts/{postID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
