package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Pixboard/internal/core/comments"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

type postgresCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &postgresCommentRepo{db: db}
}

// Create inserts a new comment; a missing parent post maps to ErrPostNotFound
func (r *postgresCommentRepo) Create(ctx context.Context, comment *comments.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, author_id, author_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.PostID, comment.AuthorID, comment.AuthorName, comment.Body, comment.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return comments.ErrPostNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment within a post's thread
func (r *postgresCommentRepo) GetByID(ctx context.Context, postID, commentID string) (*comments.Comment, error) {
	query := `
		SELECT id, post_id, author_id, author_name, body, created_at
		FROM comments
		WHERE post_id = $1 AND id = $2
	`
	var c comments.Comment
	err := r.db.QueryRowContext(ctx, query, postID, commentID).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, comments.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByPost returns a thread oldest first
func (r *postgresCommentRepo) ListByPost(ctx context.Context, postID string) ([]*comments.Comment, error) {
	query := `
		SELECT id, post_id, author_id, author_name, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*comments.Comment{}
	for rows.Next() {
		var c comments.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return result, nil
}

// Delete removes a single comment
func (r *postgresCommentRepo) Delete(ctx context.Context, postID, commentID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1 AND id = $2`, postID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectOneRow(result, comments.ErrCommentNotFound)
}

// CountByPosts counts comments for a batch of posts
func (r *postgresCommentRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT post_id, COUNT(*)
		FROM comments
		WHERE post_id = ANY($1)
		GROUP BY post_id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID string
		var n int
		if err := rows.Scan(&postID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		counts[postID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment counts: %w", err)
	}
	return counts, nil
}
