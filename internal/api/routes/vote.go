package routes

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Pixboard/internal/api/handlers/vote"
	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/votes"
)

// RegisterVoteRoutes registers the vote endpoint on the router
func RegisterVoteRoutes(r chi.Router, service votes.Service, auth *middleware.JWTAuthMiddleware, logger *zap.SugaredLogger) {
	h := vote.NewCastVoteHandler(service, logger)

	r.With(auth.RequireAuth).Post("/api/posts/{postID}/vote", h.HandleCastVote)
}
