package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Pixboard/internal/api/handlers/comment"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/comments"
)

// RegisterCommentRoutes registers thread endpoints on the router
func RegisterCommentRoutes(r chi.Router, service comments.Service, auth *middleware.JWTAuthMiddleware, logger *zap.SugaredLogger) {
	h := comment.NewHandler(service, logger)

	r.Get("/api/posts/{postID}/comments", h.HandleList)
	r.With(auth.RequireAuth).Post("/api/posts/{postID}/comments", h.HandleCreate)
	r.With(auth.RequireAuth).Delete("/api/posts/{postID}/comments/{commentID}", h.HandleDelete)
}
