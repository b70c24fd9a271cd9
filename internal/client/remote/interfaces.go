package remote

import (
	"context"

	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// Service is the remote interaction contract the client stores synchronize against.
// Errors match ErrNetworkFailure or ErrServerRejected.
type Service interface {
	ListComments(ctx context.Context, postID string) ([]comments.Comment, error)

	// CreateComment posts a comment as the bearer-token user
	CreateComment(ctx context.Context, postID, body string) (comments.Comment, error)

	DeleteComment(ctx context.Context, postID, commentID string) error

	// CastVote sends the target direction; the result carries the canonical tally
	CastVote(ctx context.Context, postID string, direction votes.Direction) (votes.VoteResult, error)

	UpdatePost(ctx context.Context, postID string, update posts.PostUpdate) (posts.Post, error)

	DeletePost(ctx context.Context, postID string) error

	ListFeed(ctx context.Context, limit, offset int) ([]posts.Post, error)

	ListUserPosts(ctx context.Context, userID string) ([]posts.Post, error)
}
