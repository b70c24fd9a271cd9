package comments

import "context"

// SubjectValidator validates that the post a comment targets exists
type SubjectValidator interface {
	// Exists checks if a post exists with the given ID
	Exists(ctx context.Context, postID string) (bool, error)
}

// Service defines the business logic interface for comments
type Service interface {
	// ListComments returns a post's thread in display order (oldest first)
	ListComments(ctx context.Context, postID string) ([]*Comment, error)

	// CreateComment validates and stores a new comment, returning it with its canonical ID and timestamp
	CreateComment(ctx context.Context, authorID, authorName, postID, body string) (*Comment, error)

	// DeleteComment removes a comment; only its author may delete it
	DeleteComment(ctx context.Context, callerID, postID, commentID string) error
}

// Repository defines the data access interface for comments
type Repository interface {
	// Create inserts a new comment
	Create(ctx context.Context, comment *Comment) error

	// GetByID retrieves a comment within a post's thread
	GetByID(ctx context.Context, postID, commentID string) (*Comment, error)

	// ListByPost retrieves a post's thread ordered by creation time, then ID
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)

	// Delete removes a single comment
	Delete(ctx context.Context, postID, commentID string) error


	// CountByPosts returns thread lengths for a batch of posts
	// Posts without comments are absent from the map
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
}
