package memory

import (
	"context"

	"Pixboard/internal/core/votes"
)

type memoryVoteRepo struct {
	db *DB
}

// NewVoteRepository creates a vote repository backed by db
func NewVoteRepository(db *DB) votes.Repository {
	return &memoryVoteRepo{db: db}
}

func (r *memoryVoteRepo) Set(_ context.Context, postID, voterID string, direction votes.Direction) (votes.Tally, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[postID]; !ok {
		return votes.Tally{}, votes.ErrSubjectNotFound
	}

	byVoter := r.db.votes[postID]
	if byVoter == nil {
		byVoter = make(map[string]votes.Direction)
		r.db.votes[postID] = byVoter
	}
	if direction == votes.DirectionNone {
		delete(byVoter, voterID)
	} else {
		byVoter[voterID] = direction
	}
	return r.tallyLocked(postID), nil
}

func (r *memoryVoteRepo) Get(_ context.Context, postID, voterID string) (votes.Direction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if d, ok := r.db.votes[postID][voterID]; ok {
		return d, nil
	}
	return votes.DirectionNone, nil
}

func (r *memoryVoteRepo) GetTally(_ context.Context, postID string) (votes.Tally, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.tallyLocked(postID), nil
}

func (r *memoryVoteRepo) TalliesForPosts(_ context.Context, postIDs []string) (map[string]votes.Tally, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]votes.Tally, len(postIDs))
	for _, id := range postIDs {
		if len(r.db.votes[id]) > 0 {
			out[id] = r.tallyLocked(id)
		}
	}
	return out, nil
}

func (r *memoryVoteRepo) DirectionsForPosts(_ context.Context, voterID string, postIDs []string) (map[string]votes.Direction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]votes.Direction)
	for _, id := range postIDs {
		if d, ok := r.db.votes[id][voterID]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (r *memoryVoteRepo) tallyLocked(postID string) votes.Tally {
	var t votes.Tally
	for _, d := range r.db.votes[postID] {
		switch d {
		case votes.DirectionUp:
			t.Upvotes++
		case votes.DirectionDown:
			t.Downvotes++
		}
	}
	return t
}
