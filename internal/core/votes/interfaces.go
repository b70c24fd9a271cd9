package votes

import "context"

// Service defines the business logic interface for votes
type Service interface {
	// CastVote sets the voter's stance on a post to the target direction and returns the
	// recomputed canonical tally. DirectionNone removes the voter's vote.
	// The target is absolute, so replaying the same request is idempotent.
	CastVote(ctx context.Context, voterID, postID string, target Direction) (*VoteResult, error)

	// GetVote returns the voter's current direction on a post (DirectionNone if never voted)
	GetVote(ctx context.Context, voterID, postID string) (Direction, error)
}

// Repository defines the data access interface for votes
type Repository interface {
	// Set stores the voter's direction atomically and returns the post's tally afterwards.
	// DirectionNone deletes the row. Returns ErrSubjectNotFound when the post is gone.
	Set(ctx context.Context, postID, voterID string, direction Direction) (Tally, error)

	// Get returns the voter's direction on a post, DirectionNone when absent
	Get(ctx context.Context, postID, voterID string) (Direction, error)

	// GetTally counts the votes on a post
	GetTally(ctx context.Context, postID string) (Tally, error)

	// TalliesForPosts counts votes for a batch of posts
	// Posts without votes are absent from the map
	TalliesForPosts(ctx context.Context, postIDs []string) (map[string]Tally, error)

	// DirectionsForPosts returns the voter's direction for each post that has one
	// Used to hydrate ViewerDirection on feed and dashboard listings
	DirectionsForPosts(ctx context.Context, voterID string, postIDs []string) (map[string]Direction, error)

}
