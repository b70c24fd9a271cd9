package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Pixboard/internal/core/posts"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

const postColumns = `id, author_id, author_name, title, description, category, image_url, tags, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*posts.Post, error) {
	var p posts.Post
	var tags pq.StringArray
	if err := row.Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Description,
		&p.Category, &p.ImageURL, &tags, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Tags = []string(tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

// Create inserts a new post
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.AuthorID, post.AuthorName, post.Title, post.Description,
		post.Category, post.ImageURL, pq.Array(post.Tags), post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *postgresPostRepo) GetByID(ctx context.Context, postID string) (*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, postID))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List returns posts newest first
func (r *postgresPostRepo) List(ctx context.Context, limit, offset int) ([]*posts.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, query, limit, offset)
}

// ListByAuthor returns an author's posts newest first
func (r *postgresPostRepo) ListByAuthor(ctx context.Context, authorID string) ([]*posts.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.query(ctx, query, authorID)
}

func (r *postgresPostRepo) query(ctx context.Context, query string, args ...any) ([]*posts.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, nil
}

// Update persists the editable fields
func (r *postgresPostRepo) Update(ctx context.Context, post *posts.Post) error {
	query := `
		UPDATE posts
		SET title = $2, description = $3, category = $4, tags = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Description, post.Category, pq.Array(post.Tags), post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return expectOneRow(result, posts.ErrNotFound)
}

// Delete removes a post; comments and votes cascade
func (r *postgresPostRepo) Delete(ctx context.Context, postID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectOneRow(result, posts.ErrNotFound)
}

// Exists checks whether a post exists
func (r *postgresPostRepo) Exists(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
