package posts

import (
	"time"

	"Pixboard/internal/core/votes"
)

// Post is an image post as served to clients.
// Upvotes, Downvotes, CommentCount and ViewerDirection are hydrated per request;
// CommentCount is the server-authoritative baseline a client shows before it loads the thread.
type Post struct {
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	ID              string          `json:"id" db:"id"`
	AuthorID        string          `json:"authorId" db:"author_id"`
	AuthorName      string          `json:"authorName" db:"author_name"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	Category        string          `json:"category" db:"category"`
	ImageURL        string          `json:"imageUrl" db:"image_url"`
	ViewerDirection votes.Direction `json:"viewerDirection,omitempty"`
	Tags            []string        `json:"tags" db:"tags"`
	Upvotes         int             `json:"upvotes"`
	Downvotes       int             `json:"downvotes"`
	CommentCount    int             `json:"commentCount"`
}

// Tally returns the post's vote counts
func (p *Post) Tally() votes.Tally {
	return votes.Tally{Upvotes: p.Upvotes, Downvotes: p.Downvotes}
}

// CreatePostRequest represents input for creating a new post
type CreatePostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
}

// PostUpdate is a partial edit of a post; nil fields are left unchanged
type PostUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Tags == nil
}

// ApplyTo copies the set fields onto p
func (u PostUpdate) ApplyTo(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Tags != nil {
		p.Tags = append([]string(nil), u.Tags...)
	}
}
