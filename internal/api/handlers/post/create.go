package post

import (
	"net/http"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/posts"
)

// HandleCreate publishes a post for the caller
// POST /api/posts
//
// Request body: { "title", "description", "category", "imageUrl", "tags" }
// Response: 201 with the hydrated post
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	var input posts.CreatePostRequest
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}

	created, err := h.service.CreatePost(r.Context(), userID, middleware.GetUserName(r), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, created)
}
