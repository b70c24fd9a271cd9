package comments

import (
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// MaxBodyGraphemes is the maximum length for comment bodies in graphemes
const MaxBodyGraphemes = 10000

// Comment is a single entry in a post's thread
type Comment struct {
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	ID         string    `json:"id" db:"id"`
	PostID     string    `json:"postId" db:"post_id"`
	AuthorID   string    `json:"authorId" db:"author_id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	Body       string    `json:"body" db:"body"`
}

// CreateCommentRequest is the body of POST /api/posts/{postID}/comments
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// ValidateBody checks a comment body before it is sent or stored.
// Blank bodies and bodies longer than MaxBodyGraphemes are rejected.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrContentEmpty
	}
	if uniseg.GraphemeClusterCount(body) > MaxBodyGraphemes {
		return ErrContentTooLong
	}
	return nil
}
