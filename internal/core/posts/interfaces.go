package posts

import "context"

// Service defines the business logic interface for posts
// Reads are hydrated with vote tallies, comment counts and the viewer's own vote.
type Service interface {
	// CreatePost publishes a new image post for the author
	CreatePost(ctx context.Context, authorID, authorName string, req CreatePostRequest) (*Post, error)

	// GetPost returns a single hydrated post
	GetPost(ctx context.Context, viewerID, postID string) (*Post, error)

	// ListFeed returns the newest posts first
	ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*Post, error)

	// ListByAuthor returns one author's posts, newest first (profile dashboard)
	ListByAuthor(ctx context.Context, viewerID, authorID string) ([]*Post, error)

	// UpdatePost applies a partial edit; only the author may edit
	UpdatePost(ctx context.Context, callerID, postID string, update PostUpdate) (*Post, error)

	// DeletePost removes a post with its comments and votes; only the author may delete
	DeletePost(ctx context.Context, callerID, postID string) error
}

// Repository defines the data access interface for posts
type Repository interface {
	Create(ctx context.Context, post *Post) error

	// GetByID returns ErrNotFound for unknown IDs
	GetByID(ctx context.Context, postID string) (*Post, error)

	// List returns posts newest first
	List(ctx context.Context, limit, offset int) ([]*Post, error)

	// ListByAuthor returns an author's posts newest first
	ListByAuthor(ctx context.Context, authorID string) ([]*Post, error)

	// Update persists title, description, category, tags and updated_at
	Update(ctx context.Context, post *Post) error

	// Delete removes the post together with its comments and votes in one step,
	// so nothing can be attached to the post once it is gone
	Delete(ctx context.Context, postID string) error

	// Exists reports whether a post exists; satisfies comments.SubjectValidator
	Exists(ctx context.Context, postID string) (bool, error)
}
