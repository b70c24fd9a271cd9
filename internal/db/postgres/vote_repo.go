package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Pixboard/internal/core/votes"
)

type postgresVoteRepo struct {
	db *sql.DB
}

// NewVoteRepository creates a new PostgreSQL vote repository
func NewVoteRepository(db *sql.DB) votes.Repository {
	return &postgresVoteRepo{db: db}
}

const tallyQuery = `
	SELECT
		COUNT(*) FILTER (WHERE direction = 'up'),
		COUNT(*) FILTER (WHERE direction = 'down')
	FROM votes
	WHERE post_id = $1
`

// Set stores the voter's direction and returns the recomputed tally in one transaction.
// The post row is share-locked so a concurrent delete can't orphan the vote.
func (r *postgresVoteRepo) Set(ctx context.Context, postID, voterID string, direction votes.Direction) (votes.Tally, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return votes.Tally{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE id = $1 FOR SHARE`, postID).Scan(&id)
	if err == sql.ErrNoRows {
		return votes.Tally{}, votes.ErrSubjectNotFound
	}
	if err != nil {
		return votes.Tally{}, fmt.Errorf("failed to lock post: %w", err)
	}

	if direction == votes.DirectionNone {
		_, err = tx.ExecContext(ctx, `DELETE FROM votes WHERE post_id = $1 AND voter_id = $2`, postID, voterID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO votes (post_id, voter_id, direction, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (post_id, voter_id)
			DO UPDATE SET direction = EXCLUDED.direction, updated_at = NOW()
		`, postID, voterID, string(direction))
	}
	if err != nil {
		return votes.Tally{}, fmt.Errorf("failed to write vote: %w", err)
	}

	var tally votes.Tally
	if err := tx.QueryRowContext(ctx, tallyQuery, postID).Scan(&tally.Upvotes, &tally.Downvotes); err != nil {
		return votes.Tally{}, fmt.Errorf("failed to count votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return votes.Tally{}, fmt.Errorf("failed to commit vote: %w", err)
	}
	return tally, nil
}

// Get returns the voter's direction, DirectionNone when absent
func (r *postgresVoteRepo) Get(ctx context.Context, postID, voterID string) (votes.Direction, error) {
	var direction string
	err := r.db.QueryRowContext(ctx,
		`SELECT direction FROM votes WHERE post_id = $1 AND voter_id = $2`, postID, voterID,
	).Scan(&direction)
	if err == sql.ErrNoRows {
		return votes.DirectionNone, nil
	}
	if err != nil {
		return votes.DirectionNone, fmt.Errorf("failed to get vote: %w", err)
	}
	return votes.Direction(direction), nil
}

// GetTally counts the votes on a post
func (r *postgresVoteRepo) GetTally(ctx context.Context, postID string) (votes.Tally, error) {
	var tally votes.Tally
	if err := r.db.QueryRowContext(ctx, tallyQuery, postID).Scan(&tally.Upvotes, &tally.Downvotes); err != nil {
		return votes.Tally{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return tally, nil
}

// TalliesForPosts counts votes for a batch of posts
func (r *postgresVoteRepo) TalliesForPosts(ctx context.Context, postIDs []string) (map[string]votes.Tally, error) {
	result := make(map[string]votes.Tally, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT
			post_id,
			COUNT(*) FILTER (WHERE direction = 'up'),
			COUNT(*) FILTER (WHERE direction = 'down')
		FROM votes
		WHERE post_id = ANY($1)
		GROUP BY post_id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID string
		var tally votes.Tally
		if err := rows.Scan(&postID, &tally.Upvotes, &tally.Downvotes); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		result[postID] = tally
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tallies: %w", err)
	}
	return result, nil
}

// DirectionsForPosts returns the voter's direction on each post they voted on
func (r *postgresVoteRepo) DirectionsForPosts(ctx context.Context, voterID string, postIDs []string) (map[string]votes.Direction, error) {
	result := make(map[string]votes.Direction)
	if voterID == "" || len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT post_id, direction
		FROM votes
		WHERE voter_id = $1 AND post_id = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, voterID, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query viewer votes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID, direction string
		if err := rows.Scan(&postID, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan viewer vote: %w", err)
		}
		result[postID] = votes.Direction(direction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating viewer votes: %w", err)
	}
	return result, nil
}
