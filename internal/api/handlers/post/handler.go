package post

import (
	"go.uber.org/zap"

	"Pixboard/internal/core/posts"
)

// Handler serves post reads and author mutations
type Handler struct {
	service posts.Service
	logger  *zap.SugaredLogger
}

// NewHandler creates a post handler
func NewHandler(service posts.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ListResponse wraps a page of hydrated posts
type ListResponse struct {
	Posts []*posts.Post `json:"posts"`
}

func listResponse(list []*posts.Post) ListResponse {
	if list == nil {
		list = []*posts.Post{}
	}
	return ListResponse{Posts: list}
}
