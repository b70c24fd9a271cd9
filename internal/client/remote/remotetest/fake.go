// Package remotetest provides a configurable remote.Service for tests.
package remotetest

import (
	"context"
	"sync"

	"Pixboard/internal/client/remote"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// Fake implements remote.Service with per-method funcs. A nil func returns
// zero values. Calls are counted per method name.
type Fake struct {
	ListCommentsFn  func(ctx context.Context, postID string) ([]comments.Comment, error)
	CreateCommentFn func(ctx context.Context, postID, body string) (comments.Comment, error)
	DeleteCommentFn func(ctx context.Context, postID, commentID string) error
	CastVoteFn      func(ctx context.Context, postID string, direction votes.Direction) (votes.VoteResult, error)
	UpdatePostFn    func(ctx context.Context, postID string, update posts.PostUpdate) (posts.Post, error)
	DeletePostFn    func(ctx context.Context, postID string) error
	ListFeedFn      func(ctx context.Context, limit, offset int) ([]posts.Post, error)
	ListUserPostsFn func(ctx context.Context, userID string) ([]posts.Post, error)

	calls map[string]int
	mu    sync.Mutex
}

var _ remote.Service = (*Fake)(nil)

func (f *Fake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how many times method was invoked
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	f.record("ListComments")
	if f.ListCommentsFn == nil {
		return []comments.Comment{}, nil
	}
	return f.ListCommentsFn(ctx, postID)
}

func (f *Fake) CreateComment(ctx context.Context, postID, body string) (comments.Comment, error) {
	f.record("CreateComment")
	if f.CreateCommentFn == nil {
		return comments.Comment{}, nil
	}
	return f.CreateCommentFn(ctx, postID, body)
}

func (f *Fake) DeleteComment(ctx context.Context, postID, commentID string) error {
	f.record("DeleteComment")
	if f.DeleteCommentFn == nil {
		return nil
	}
	return f.DeleteCommentFn(ctx, postID, commentID)
}

func (f *Fake) CastVote(ctx context.Context, postID string, direction votes.Direction) (votes.VoteResult, error) {
	f.record("CastVote")
	if f.CastVoteFn == nil {
		return votes.VoteResult{Direction: direction}, nil
	}
	return f.CastVoteFn(ctx, postID, direction)
}

func (f *Fake) UpdatePost(ctx context.Context, postID string, update posts.PostUpdate) (posts.Post, error) {
	f.record("UpdatePost")
	if f.UpdatePostFn == nil {
		return posts.Post{ID: postID}, nil
	}
	return f.UpdatePostFn(ctx, postID, update)
}

func (f *Fake) DeletePost(ctx context.Context, postID string) error {
	f.record("DeletePost")
	if f.DeletePostFn == nil {
		return nil
	}
	return f.DeletePostFn(ctx, postID)
}

func (f *Fake) ListFeed(ctx context.Context, limit, offset int) ([]posts.Post, error) {
	f.record("ListFeed")
	if f.ListFeedFn == nil {
		return []posts.Post{}, nil
	}
	return f.ListFeedFn(ctx, limit, offset)
}

func (f *Fake) ListUserPosts(ctx context.Context, userID string) ([]posts.Post, error) {
	f.record("ListUserPosts")
	if f.ListUserPostsFn == nil {
		return []posts.Post{}, nil
	}
	return f.ListUserPostsFn(ctx, userID)
}

// Gate blocks a fake call until the test releases it.
// Entered receives once per call that reaches Wait.
type Gate struct {
	entered chan struct{}
	release chan struct{}
}

// NewGate creates a gate; buffer bounds how many calls may be parked at once
func NewGate(buffer int) *Gate {
	return &Gate{
		entered: make(chan struct{}, buffer),
		release: make(chan struct{}),
	}
}

// Wait parks the caller until Release or ctx is done
func (g *Gate) Wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entered returns a channel that receives once per parked call
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release unparks every current and future caller
func (g *Gate) Release() {
	close(g.release)
}
