package memory

import (
	"context"
	"sort"

	"Pixboard/internal/core/posts"
)

type memoryPostRepo struct {
	db *DB
}

// NewPostRepository creates a post repository backed by db
func NewPostRepository(db *DB) posts.Repository {
	return &memoryPostRepo{db: db}
}

func (r *memoryPostRepo) Create(_ context.Context, post *posts.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.posts[post.ID] = copyPost(post)
	return nil
}

func (r *memoryPostRepo) GetByID(_ context.Context, postID string) (*posts.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.posts[postID]
	if !ok {
		return nil, posts.ErrNotFound
	}
	return copyPost(p), nil
}

func (r *memoryPostRepo) List(_ context.Context, limit, offset int) ([]*posts.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := r.sortedLocked(func(*posts.Post) bool { return true })
	if offset >= len(all) {
		return []*posts.Post{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *memoryPostRepo) ListByAuthor(_ context.Context, authorID string) ([]*posts.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.sortedLocked(func(p *posts.Post) bool { return p.AuthorID == authorID }), nil
}

func (r *memoryPostRepo) Update(_ context.Context, post *posts.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.posts[post.ID]
	if !ok {
		return posts.ErrNotFound
	}
	existing.Title = post.Title
	existing.Description = post.Description
	existing.Category = post.Category
	existing.Tags = append([]string(nil), post.Tags...)
	existing.UpdatedAt = post.UpdatedAt
	return nil
}

func (r *memoryPostRepo) Delete(_ context.Context, postID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[postID]; !ok {
		return posts.ErrNotFound
	}
	delete(r.db.posts, postID)
	delete(r.db.comments, postID)
	delete(r.db.votes, postID)
	return nil
}

func (r *memoryPostRepo) Exists(_ context.Context, postID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.posts[postID]
	return ok, nil
}

// sortedLocked returns copies of matching posts, newest first; caller holds the read lock
func (r *memoryPostRepo) sortedLocked(match func(*posts.Post) bool) []*posts.Post {
	out := make([]*posts.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		if match(p) {
			out = append(out, copyPost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
