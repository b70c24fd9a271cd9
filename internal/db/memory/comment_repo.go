package memory

import (
	"context"

	"Pixboard/internal/core/comments"
)

type memoryCommentRepo struct {
	db *DB
}

// NewCommentRepository creates a comment repository backed by db
func NewCommentRepository(db *DB) comments.Repository {
	return &memoryCommentRepo{db: db}
}

func (r *memoryCommentRepo) Create(_ context.Context, comment *comments.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[comment.PostID]; !ok {
		return comments.ErrPostNotFound
	}
	r.db.comments[comment.PostID] = append(r.db.comments[comment.PostID], copyComment(comment))
	return nil
}

func (r *memoryCommentRepo) GetByID(_ context.Context, postID, commentID string) (*comments.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, c := range r.db.comments[postID] {
		if c.ID == commentID {
			return copyComment(c), nil
		}
	}
	return nil, comments.ErrCommentNotFound
}

func (r *memoryCommentRepo) ListByPost(_ context.Context, postID string) ([]*comments.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	thread := r.db.comments[postID]
	out := make([]*comments.Comment, len(thread))
	for i, c := range thread {
		out[i] = copyComment(c)
	}
	return out, nil
}

func (r *memoryCommentRepo) Delete(_ context.Context, postID, commentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	thread := r.db.comments[postID]
	for i, c := range thread {
		if c.ID == commentID {
			r.db.comments[postID] = append(thread[:i:i], thread[i+1:]...)
			return nil
		}
	}
	return comments.ErrCommentNotFound
}

func (r *memoryCommentRepo) CountByPosts(_ context.Context, postIDs []string) (map[string]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int, len(postIDs))
	for _, id := range postIDs {
		if n := len(r.db.comments[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}
