// Package dashboard presents the caller's own posts and lets them edit or
// delete them, keeping the shared comment and vote stores in step.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Pixboard/internal/client/notify"
	"Pixboard/internal/client/postcard"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/session"
	"Pixboard/internal/core/posts"
)

const defaultPrefetchConcurrency = 4

// ErrValidation is matched by locally rejected dashboard actions
var ErrValidation = errors.New("invalid dashboard operation")

var (
	ErrNotAuthenticated = fmt.Errorf("%w: sign in to view your uploads", ErrValidation)
	ErrUnknownPost      = fmt.Errorf("%w: post is not on this dashboard", ErrValidation)
	ErrNothingToUpdate  = fmt.Errorf("%w: no fields to update", ErrValidation)
)

// Dashboard holds one post card per upload of the signed-in user
type Dashboard struct {
	remote   remote.Service
	deps     postcard.Deps
	logger   *zap.SugaredLogger
	notifier notify.Sink
	auth     session.Authenticator
	deleted  map[string]struct{}
	cards    []*postcard.Presenter
	parallel int
	mu       sync.Mutex
}

// New creates an empty dashboard. deps.Comments and deps.Votes are shared with
// any other presenters in the session.
func New(svc remote.Service, deps postcard.Deps) *Dashboard {
	if deps.Auth == nil {
		deps.Auth = session.Anonymous
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	return &Dashboard{
		remote:   svc,
		deps:     deps,
		logger:   deps.Logger,
		notifier: deps.Notifier,
		auth:     deps.Auth,
		deleted:  make(map[string]struct{}),
		parallel: defaultPrefetchConcurrency,
	}
}

// SetPrefetchConcurrency bounds how many threads PrefetchComments loads at once
func (d *Dashboard) SetPrefetchConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parallel = n
}

// Load fetches the caller's uploads and seeds their vote state.
// Posts deleted earlier in the session are skipped.
func (d *Dashboard) Load(ctx context.Context) error {
	if !d.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	userID := d.auth.CurrentUserID()

	list, err := d.remote.ListUserPosts(ctx, userID)
	if err != nil {
		d.logger.Warnw("failed to load uploads", "user", userID, "error", err)
		d.pushError(err, notify.ShortDuration)
		return err
	}

	d.mu.Lock()
	existing := make(map[string]*postcard.Presenter, len(d.cards))
	for _, card := range d.cards {
		existing[card.PostID()] = card
	}
	cards := make([]*postcard.Presenter, 0, len(list))
	for _, post := range list {
		if _, gone := d.deleted[post.ID]; gone {
			continue
		}
		if card, ok := existing[post.ID]; ok {
			card.SetPost(post)
			cards = append(cards, card)
			continue
		}
		cards = append(cards, postcard.New(post, d.deps))
	}
	d.cards = cards
	d.mu.Unlock()

	d.logger.Debugw("uploads loaded", "user", userID, "count", len(cards))
	return nil
}

// Views returns the current card views in upload order
func (d *Dashboard) Views() []postcard.View {
	d.mu.Lock()
	cards := append([]*postcard.Presenter(nil), d.cards...)
	d.mu.Unlock()

	views := make([]postcard.View, len(cards))
	for i, card := range cards {
		views[i] = card.View()
	}
	return views
}

// Card returns the presenter for one upload
func (d *Dashboard) Card(postID string) (*postcard.Presenter, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cardLocked(postID)
}

func (d *Dashboard) cardLocked(postID string) (*postcard.Presenter, bool) {
	for _, card := range d.cards {
		if card.PostID() == postID {
			return card, true
		}
	}
	return nil, false
}

// EditPost saves an edit. On success both stores drop the post's state and
// votes are re-seeded from the returned post.
func (d *Dashboard) EditPost(ctx context.Context, postID string, update posts.PostUpdate) (posts.Post, error) {
	if update.IsEmpty() {
		return posts.Post{}, ErrNothingToUpdate
	}
	card, ok := d.Card(postID)
	if !ok {
		return posts.Post{}, ErrUnknownPost
	}

	updated, err := d.remote.UpdatePost(ctx, postID, update)
	if err != nil {
		d.logger.Warnw("failed to update upload", "post", postID, "error", err)
		d.pushError(err, notify.ShortDuration)
		return posts.Post{}, err
	}

	d.deps.Comments.Forget(postID)
	d.deps.Votes.Forget(postID)
	d.deps.Votes.Seed(postID, updated.Tally(), updated.ViewerDirection)
	card.SetPost(updated)

	d.notifier.Push(notify.Notification{
		Title:       "Upload updated.",
		Description: "The upload has been successfully updated.",
		Status:      notify.StatusSuccess,
		Duration:    notify.ShortDuration,
	})
	d.logger.Infow("upload updated", "post", postID)
	return updated, nil
}

// DeletePost deletes an upload. On success the post is removed from both
// stores for the rest of the session and from the dashboard, and later loads skip it.
func (d *Dashboard) DeletePost(ctx context.Context, postID string) error {
	if _, ok := d.Card(postID); !ok {
		return ErrUnknownPost
	}

	if err := d.remote.DeletePost(ctx, postID); err != nil {
		d.logger.Warnw("failed to delete upload", "post", postID, "error", err)
		d.pushError(err, notify.LongDuration)
		return err
	}

	d.mu.Lock()
	d.deleted[postID] = struct{}{}
	kept := d.cards[:0]
	for _, card := range d.cards {
		if card.PostID() != postID {
			kept = append(kept, card)
		}
	}
	d.cards = kept
	d.mu.Unlock()

	d.deps.Comments.Remove(postID)
	d.deps.Votes.Remove(postID)

	d.notifier.Push(notify.Notification{
		Title:       "Upload deleted.",
		Description: "The upload has been successfully deleted.",
		Status:      notify.StatusSuccess,
		Duration:    notify.LongDuration,
	})
	d.logger.Infow("upload deleted", "post", postID)
	return nil
}

// PrefetchComments loads every card's thread with bounded concurrency.
// A failed thread stays unloaded and can be expanded later; the first error is returned.
func (d *Dashboard) PrefetchComments(ctx context.Context) error {
	d.mu.Lock()
	ids := make([]string, len(d.cards))
	for i, card := range d.cards {
		ids[i] = card.PostID()
	}
	limit := d.parallel
	d.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.deps.Comments.FetchComments(ctx, id); err != nil {
				d.logger.Warnw("comment prefetch failed", "post", id, "error", err)
				return fmt.Errorf("prefetch comments for %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Dashboard) pushError(err error, duration time.Duration) {
	if !remote.IsTransient(err) {
		return
	}
	d.notifier.Push(notify.Notification{
		Title:       "Error",
		Description: remote.Message(err),
		Status:      notify.StatusError,
		Duration:    duration,
	})
}
