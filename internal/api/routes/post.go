package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Pixboard/internal/api/handlers/post"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/posts"
)

// RegisterPostRoutes registers post endpoints on the router.
// Reads accept anonymous viewers; a valid token adds the viewer's own vote to each post.
func RegisterPostRoutes(r chi.Router, service posts.Service, auth *middleware.JWTAuthMiddleware, logger *zap.SugaredLogger) {
	h := post.NewHandler(service, logger)

	r.With(auth.OptionalAuth).Get("/api/posts", h.HandleFeed)
	r.With(auth.OptionalAuth).Get("/api/posts/{postID}", h.HandleGet)
	r.With(auth.OptionalAuth).Get("/api/users/{userID}/posts", h.HandleListByAuthor)

	// Author-only mutations
	r.With(auth.RequireAuth).Post("/api/posts", h.HandleCreate)
	r.With(auth.RequireAuth).Put("/api/posts/{postID}", h.HandleUpdate)
	r.With(auth.RequireAuth).Delete("/api/posts/{postID}", h.HandleDelete)
}
