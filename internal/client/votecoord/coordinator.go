// Package votecoord keeps per-post vote tallies and the caller's direction,
// applying clicks optimistically and reconciling with the server's tally.
package votecoord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Pixboard/internal/client/keylock"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/session"
	"Pixboard/internal/core/votes"
)

const resourceVote = "vote"

// ErrValidation is matched by locally rejected clicks. No request is sent.
var ErrValidation = errors.New("invalid vote")

var (
	ErrNotAuthenticated = fmt.Errorf("%w: sign in to vote", ErrValidation)
	ErrUnknownPost      = fmt.Errorf("%w: post has no vote state", ErrValidation)
	ErrInvalidDirection = fmt.Errorf("%w: %w", ErrValidation, votes.ErrInvalidDirection)

	// ErrVotePending is returned while a vote on the same post is in flight
	ErrVotePending = fmt.Errorf("vote already pending: %w", keylock.ErrConflictRejected)
)

// VoteState is a snapshot of one post's votes as the caller sees them
type VoteState struct {
	Direction votes.Direction
	Tally     votes.Tally
	Pending   bool
}

type entry struct {
	direction votes.Direction
	tally     votes.Tally
	pending   bool
}

func (e *entry) snapshot() VoteState {
	return VoteState{Tally: e.tally, Direction: e.direction, Pending: e.pending}
}

// Coordinator owns vote state for every rendered post
type Coordinator struct {
	remote    remote.Service
	auth      session.Authenticator
	logger    *zap.SugaredLogger
	states    map[string]*entry
	removed   map[string]struct{}
	listeners map[int]func(postID string)
	gate      keylock.Gate
	nextSub   int
	mu        sync.Mutex
}

// New creates a coordinator that votes through svc as the auth user
func New(svc remote.Service, auth session.Authenticator, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if auth == nil {
		auth = session.Anonymous
	}
	return &Coordinator{
		remote:    svc,
		auth:      auth,
		logger:    logger,
		states:    make(map[string]*entry),
		removed:   make(map[string]struct{}),
		listeners: make(map[int]func(string)),
	}
}

// Seed records the server's tally for a post at render time.
// Existing state is never overwritten and removed posts are never seeded again.
func (c *Coordinator) Seed(postID string, tally votes.Tally, direction votes.Direction) {
	if !direction.IsClickable() {
		direction = votes.DirectionNone
	}

	c.mu.Lock()
	_, exists := c.states[postID]
	_, gone := c.removed[postID]
	if exists || gone {
		c.mu.Unlock()
		return
	}
	c.states[postID] = &entry{tally: tally, direction: direction}
	c.mu.Unlock()
	c.notify(postID)
}

// State returns a post's vote snapshot, false if it was never seeded
func (c *Coordinator) State(postID string) (VoteState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.states[postID]
	if !ok {
		return VoteState{}, false
	}
	return e.snapshot(), true
}

// Forget drops a post's vote state. A response still in flight for it is discarded.
func (c *Coordinator) Forget(postID string) {
	c.mu.Lock()
	_, existed := c.states[postID]
	delete(c.states, postID)
	c.gate.Forget(keylock.Key(postID, resourceVote))
	c.mu.Unlock()

	if existed {
		c.notify(postID)
	}
}

// Remove drops a deleted post's vote state for good; later Seeds are ignored
// and clicks fail with ErrUnknownPost.
func (c *Coordinator) Remove(postID string) {
	c.mu.Lock()
	c.removed[postID] = struct{}{}
	c.mu.Unlock()

	c.Forget(postID)
}

// Len returns the number of posts with vote state
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

// CastVote applies a click on up or down. Re-clicking the active direction
// retracts the vote. The tally changes immediately; on success the server's
// tally replaces it and on failure the pre-click state is restored.
func (c *Coordinator) CastVote(ctx context.Context, postID string, clicked votes.Direction) (VoteState, error) {
	if !clicked.IsClickable() {
		return VoteState{}, ErrInvalidDirection
	}
	if !c.auth.IsAuthenticated() {
		return VoteState{}, ErrNotAuthenticated
	}

	key := keylock.Key(postID, resourceVote)

	c.mu.Lock()
	e, ok := c.states[postID]
	if !ok {
		c.mu.Unlock()
		return VoteState{}, ErrUnknownPost
	}
	tok, err := c.gate.TryAcquire(key)
	if err != nil {
		current := e.snapshot()
		c.mu.Unlock()
		return current, ErrVotePending
	}
	before := *e
	target := votes.Transition(e.direction, clicked)
	e.tally = e.tally.Apply(e.direction, target)
	e.direction = target
	e.pending = true
	c.mu.Unlock()
	c.notify(postID)

	res, err := c.remote.CastVote(ctx, postID, target)

	c.mu.Lock()
	if !c.gate.Release(key, tok) || c.states[postID] != e {
		c.mu.Unlock()
		c.logger.Debugw("dropping vote response for forgotten post", "post", postID, "direction", target)
		return VoteState{}, err
	}
	if err != nil {
		*e = before
		restored := e.snapshot()
		c.mu.Unlock()
		c.notify(postID)
		c.logger.Warnw("vote failed, restored previous state",
			"post", postID,
			"direction", target,
			"error", err)
		return restored, err
	}

	e.tally = res.Tally()
	e.direction = target
	if res.Direction.IsClickable() || res.Direction == votes.DirectionNone {
		e.direction = res.Direction
	}
	e.pending = false
	confirmed := e.snapshot()
	c.mu.Unlock()
	c.notify(postID)

	c.logger.Debugw("vote confirmed",
		"post", postID,
		"direction", confirmed.Direction,
		"upvotes", confirmed.Tally.Upvotes,
		"downvotes", confirmed.Tally.Downvotes)
	return confirmed, nil
}

// Subscribe registers fn to be called with a post ID whenever that post's
// vote state changes. The returned func unregisters it.
func (c *Coordinator) Subscribe(fn func(postID string)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Coordinator) notify(postID string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(postID)
	}
}
