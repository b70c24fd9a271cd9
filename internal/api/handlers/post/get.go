package post

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Pixboard/internal/api/handlers"
	"Pixboard/internal/api/middleware"
)

// HandleGet returns one post hydrated for the viewer
// GET /api/posts/{postID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}

// HandleFeed returns the newest posts
// GET /api/posts?limit=20&offset=0
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := intParam(w, r, "offset")
	if !ok {
		return
	}

	list, err := h.service.ListFeed(r.Context(), middleware.GetUserID(r), limit, offset)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, listResponse(list))
}

// HandleListByAuthor returns an author's posts for their dashboard
// GET /api/users/{userID}/posts
func (h *Handler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByAuthor(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, listResponse(list))
}

// intParam parses an optional non-negative query parameter; absent means 0
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
