// Package memory provides in-process repositories for development servers and tests.
// All three repositories share one DB so cascades and existence checks see a consistent view.
package memory

import (
	"sync"

	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// DB holds every table behind a single RWMutex
type DB struct {
	posts    map[string]*posts.Post
	comments map[string][]*comments.Comment       // postID -> thread in creation order
	votes    map[string]map[string]votes.Direction // postID -> voterID -> direction
	mu       sync.RWMutex
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{
		posts:    make(map[string]*posts.Post),
		comments: make(map[string][]*comments.Comment),
		votes:    make(map[string]map[string]votes.Direction),
	}
}

func copyPost(p *posts.Post) *posts.Post {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	return &cp
}

func copyComment(c *comments.Comment) *comments.Comment {
	cp := *c
	return &cp
}
