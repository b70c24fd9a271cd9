// Package postcard derives the view of a single post from the comment store
// and vote coordinator and routes user actions back to them.
package postcard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Pixboard/internal/client/commentstore"
	"Pixboard/internal/client/notify"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/session"
	"Pixboard/internal/client/votecoord"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

// ErrSignInRequired is returned when a signed-out caller tries to comment
var ErrSignInRequired = fmt.Errorf("%w: sign in to comment", commentstore.ErrValidation)

// Deps are the shared stores and collaborators every presenter uses
type Deps struct {
	Comments *commentstore.Store
	Votes    *votecoord.Coordinator
	Auth     session.Authenticator
	Notifier notify.Sink
	Logger   *zap.SugaredLogger
}

func (d Deps) withDefaults() Deps {
	if d.Auth == nil {
		d.Auth = session.Anonymous
	}
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	return d
}

// CommentView is one rendered comment. A comment being deleted is already
// gone from the thread, so nothing in the view marks it.
type CommentView struct {
	comments.Comment
	Provisional bool
	CanDelete   bool
}

// View is everything needed to draw a post card
type View struct {
	Post            posts.Post
	Comments        []CommentView
	Tally           votes.Tally
	Direction       votes.Direction
	Score           int
	CommentCount    int
	VotePending     bool
	VoteDisabled    bool
	CommentsOpen    bool
	CommentsLoading bool
	CommentsLoaded  bool
}

// Presenter renders one post card
type Presenter struct {
	deps Deps
	id   string
	post posts.Post
	open bool
	mu   sync.Mutex
}

// New creates a presenter for post and seeds its vote state from the server's tally
func New(post posts.Post, deps Deps) *Presenter {
	deps = deps.withDefaults()
	deps.Votes.Seed(post.ID, post.Tally(), post.ViewerDirection)
	return &Presenter{deps: deps, id: post.ID, post: post}
}

// PostID returns the presented post's ID
func (p *Presenter) PostID() string {
	return p.id
}

// SetPost replaces the displayed post fields after an edit
func (p *Presenter) SetPost(post posts.Post) {
	post.ID = p.id
	p.mu.Lock()
	defer p.mu.Unlock()
	p.post = post
}

// View derives the current card from store state
func (p *Presenter) View() View {
	p.mu.Lock()
	post := p.post
	open := p.open
	p.mu.Unlock()

	v := View{
		Post:         post,
		Tally:        post.Tally(),
		Direction:    votes.DirectionNone,
		CommentsOpen: open,
	}
	if post.ViewerDirection.IsClickable() {
		v.Direction = post.ViewerDirection
	}

	if vs, ok := p.deps.Votes.State(post.ID); ok {
		v.Tally = vs.Tally
		v.Direction = vs.Direction
		v.VotePending = vs.Pending
	}
	v.Score = v.Tally.Score()
	v.VoteDisabled = v.VotePending || !p.deps.Auth.IsAuthenticated()

	v.CommentCount = post.CommentCount
	th, ok := p.deps.Comments.Thread(post.ID)
	if !ok {
		return v
	}

	v.CommentsLoading = th.Loading
	v.CommentsLoaded = th.Loaded
	if th.Loaded {
		v.CommentCount = len(th.Comments)
	} else {
		v.CommentCount = post.CommentCount + len(th.Comments)
	}

	caller := p.deps.Auth.CurrentUserID()
	v.Comments = make([]CommentView, len(th.Comments))
	for i, c := range th.Comments {
		provisional := commentstore.IsProvisional(c.ID)
		v.Comments[i] = CommentView{
			Comment:     c,
			Provisional: provisional,
			CanDelete:   caller != "" && c.AuthorID == caller && th.DeletingCommentID == "" && !provisional,
		}
	}
	return v
}

// ToggleComments expands or collapses the thread. Expanding fetches the
// thread unless it is already loaded or loading.
func (p *Presenter) ToggleComments(ctx context.Context) error {
	p.mu.Lock()
	p.open = !p.open
	opening := p.open
	p.mu.Unlock()

	if !opening {
		return nil
	}
	return p.report(p.deps.Comments.FetchComments(ctx, p.id), "fetch comments")
}

// Vote applies a click on up or down
func (p *Presenter) Vote(ctx context.Context, clicked votes.Direction) (votecoord.VoteState, error) {
	st, err := p.deps.Votes.CastVote(ctx, p.id, clicked)
	return st, p.report(err, "vote")
}

// AddComment posts a comment as the signed-in caller
func (p *Presenter) AddComment(ctx context.Context, body string) (comments.Comment, error) {
	if !p.deps.Auth.IsAuthenticated() {
		return comments.Comment{}, ErrSignInRequired
	}
	c, err := p.deps.Comments.AddComment(ctx, p.id, p.deps.Auth.CurrentUserID(), body)
	return c, p.report(err, "add comment")
}

// DeleteComment removes one of the caller's comments
func (p *Presenter) DeleteComment(ctx context.Context, commentID string) error {
	return p.report(p.deps.Comments.DeleteComment(ctx, p.id, commentID), "delete comment")
}

// OnChange calls fn with a fresh view whenever either store changes this post
func (p *Presenter) OnChange(fn func(View)) (cancel func()) {
	handler := func(postID string) {
		if postID == p.id {
			fn(p.View())
		}
	}
	cancelComments := p.deps.Comments.Subscribe(handler)
	cancelVotes := p.deps.Votes.Subscribe(handler)
	return func() {
		cancelComments()
		cancelVotes()
	}
}

// report surfaces network and server failures as error notifications.
// Validation and conflict errors are returned silently.
func (p *Presenter) report(err error, action string) error {
	if err == nil || !remote.IsTransient(err) {
		return err
	}
	p.deps.Logger.Warnw("post card action failed",
		"post", p.id,
		"action", action,
		"error", err)
	p.deps.Notifier.Push(notify.Notification{
		Title:       "Error",
		Description: remote.Message(err),
		Status:      notify.StatusError,
		Duration:    notify.ShortDuration,
	})
	return err
}
