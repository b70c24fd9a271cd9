package dashboard

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"Pixboard/internal/client/commentstore"
	"Pixboard/internal/client/notify"
	"Pixboard/internal/client/postcard"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/remote/remotetest"
	"Pixboard/internal/client/votecoord"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type signedIn string

func (s signedIn) IsAuthenticated() bool { return s != "" }
func (s signedIn) CurrentUserID() string { return string(s) }

var errOffline = fmt.Errorf("dial tcp: %w", remote.ErrNetworkFailure)

func uploads(n int) []posts.Post {
	out := make([]posts.Post, n)
	for i := range out {
		out[i] = posts.Post{
			ID:           fmt.Sprintf("p%d", i+1),
			AuthorID:     "alice",
			Title:        fmt.Sprintf("upload %d", i+1),
			Upvotes:      i,
			CommentCount: 1,
		}
	}
	return out
}

type fixture struct {
	dash     *Dashboard
	fake     *remotetest.Fake
	center   *notify.Center
	comments *commentstore.Store
	votes    *votecoord.Coordinator
}

func newFixture(t *testing.T, caller string, list []posts.Post) *fixture {
	t.Helper()
	fake := &remotetest.Fake{
		ListUserPostsFn: func(_ context.Context, userID string) ([]posts.Post, error) {
			assert.Equal(t, caller, userID)
			return append([]posts.Post(nil), list...), nil
		},
	}
	f := &fixture{
		fake:     fake,
		center:   notify.NewCenter(),
		comments: commentstore.New(fake, nil),
		votes:    votecoord.New(fake, signedIn(caller), nil),
	}
	f.dash = New(fake, postcard.Deps{
		Comments: f.comments,
		Votes:    f.votes,
		Auth:     signedIn(caller),
		Notifier: f.center,
	})
	return f
}

func TestLoad_RequiresSignIn(t *testing.T) {
	f := newFixture(t, "", uploads(1))
	assert.ErrorIs(t, f.dash.Load(context.Background()), ErrNotAuthenticated)
	assert.Equal(t, 0, f.fake.Calls("ListUserPosts"))
}

func TestLoad_SeedsVotes(t *testing.T) {
	f := newFixture(t, "alice", uploads(3))
	require.NoError(t, f.dash.Load(context.Background()))

	views := f.dash.Views()
	require.Len(t, views, 3)
	assert.Equal(t, "upload 1", views[0].Post.Title)

	st, ok := f.votes.State("p3")
	require.True(t, ok)
	assert.Equal(t, votes.Tally{Upvotes: 2}, st.Tally)
}

func TestLoad_FailureNotifies(t *testing.T) {
	f := newFixture(t, "alice", nil)
	f.fake.ListUserPostsFn = func(context.Context, string) ([]posts.Post, error) {
		return nil, errOffline
	}

	assert.ErrorIs(t, f.dash.Load(context.Background()), remote.ErrNetworkFailure)
	require.Len(t, f.center.Active(), 1)
	assert.Empty(t, f.dash.Views())
}

func TestDeletePost_InvalidatesStores(t *testing.T) {
	f := newFixture(t, "alice", uploads(2))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))
	require.NoError(t, f.dash.PrefetchComments(ctx))

	_, ok := f.comments.Thread("p1")
	require.True(t, ok)

	require.NoError(t, f.dash.DeletePost(ctx, "p1"))

	_, ok = f.comments.Thread("p1")
	assert.False(t, ok)
	_, ok = f.votes.State("p1")
	assert.False(t, ok)

	views := f.dash.Views()
	require.Len(t, views, 1)
	assert.Equal(t, "p2", views[0].Post.ID)

	active := f.center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Upload deleted.", active[0].Title)
	assert.Equal(t, notify.LongDuration, active[0].Duration)

	// a stale listing must not bring the post back
	require.NoError(t, f.dash.Load(ctx))
	assert.Len(t, f.dash.Views(), 1)
	_, ok = f.votes.State("p1")
	assert.False(t, ok)
}

func TestDeletePost_OtherCardsCannotRestoreState(t *testing.T) {
	f := newFixture(t, "alice", uploads(1))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))

	deps := postcard.Deps{
		Comments: f.comments,
		Votes:    f.votes,
		Auth:     signedIn("alice"),
		Notifier: f.center,
	}
	stale := uploads(1)[0]
	feedCard := postcard.New(stale, deps)

	require.NoError(t, f.dash.DeletePost(ctx, "p1"))
	fetchesBefore := f.fake.Calls("ListComments")

	// a cached feed listing re-renders the post and the open card expands it
	rerendered := postcard.New(stale, deps)
	assert.ErrorIs(t, feedCard.ToggleComments(ctx), commentstore.ErrPostRemoved)
	assert.ErrorIs(t, rerendered.ToggleComments(ctx), commentstore.ErrPostRemoved)
	_, err := rerendered.AddComment(ctx, "still here?")
	assert.ErrorIs(t, err, commentstore.ErrPostRemoved)
	_, err = rerendered.Vote(ctx, votes.DirectionUp)
	assert.ErrorIs(t, err, votecoord.ErrUnknownPost)

	_, ok := f.votes.State("p1")
	assert.False(t, ok, "vote state stays gone")
	_, ok = f.comments.Thread("p1")
	assert.False(t, ok, "thread stays gone")
	assert.Equal(t, fetchesBefore, f.fake.Calls("ListComments"))
	assert.Equal(t, 0, f.fake.Calls("CreateComment"))
	assert.Equal(t, 0, f.fake.Calls("CastVote"))

	active := f.center.Active()
	require.Len(t, active, 1, "local refusals raise no notifications")
	assert.Equal(t, "Upload deleted.", active[0].Title)
}

func TestDeletePost_Failure(t *testing.T) {
	f := newFixture(t, "alice", uploads(1))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))
	f.fake.DeletePostFn = func(context.Context, string) error {
		return &remote.ServerError{StatusCode: 403, Type: "Forbidden", Message: "not your upload"}
	}

	err := f.dash.DeletePost(ctx, "p1")
	assert.ErrorIs(t, err, remote.ErrForbidden)
	assert.Len(t, f.dash.Views(), 1)
	_, ok := f.votes.State("p1")
	assert.True(t, ok)

	active := f.center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Error", active[0].Title)
	assert.Equal(t, "not your upload", active[0].Description)

	assert.ErrorIs(t, f.dash.DeletePost(ctx, "missing"), ErrUnknownPost)
}

func TestEditPost_ReseedsFromServer(t *testing.T) {
	f := newFixture(t, "alice", uploads(1))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))
	f.fake.ListCommentsFn = func(context.Context, string) ([]comments.Comment, error) {
		return []comments.Comment{{ID: "c1"}}, nil
	}
	require.NoError(t, f.comments.FetchComments(ctx, "p1"))

	title := "renamed"
	f.fake.UpdatePostFn = func(_ context.Context, postID string, update posts.PostUpdate) (posts.Post, error) {
		require.NotNil(t, update.Title)
		return posts.Post{ID: postID, AuthorID: "alice", Title: *update.Title, Upvotes: 7, Downvotes: 2, ViewerDirection: votes.DirectionUp}, nil
	}

	updated, err := f.dash.EditPost(ctx, "p1", posts.PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	st, ok := f.votes.State("p1")
	require.True(t, ok)
	assert.Equal(t, votes.Tally{Upvotes: 7, Downvotes: 2}, st.Tally)
	assert.Equal(t, votes.DirectionUp, st.Direction)

	_, ok = f.comments.Thread("p1")
	assert.False(t, ok, "thread is refetched on next expand")

	views := f.dash.Views()
	require.Len(t, views, 1)
	assert.Equal(t, "renamed", views[0].Post.Title)

	active := f.center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Upload updated.", active[0].Title)
}

func TestEditPost_Rejections(t *testing.T) {
	f := newFixture(t, "alice", uploads(1))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))

	_, err := f.dash.EditPost(ctx, "p1", posts.PostUpdate{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	title := "x"
	_, err = f.dash.EditPost(ctx, "nope", posts.PostUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrUnknownPost)

	f.fake.UpdatePostFn = func(context.Context, string, posts.PostUpdate) (posts.Post, error) {
		return posts.Post{}, errOffline
	}
	_, err = f.dash.EditPost(ctx, "p1", posts.PostUpdate{Title: &title})
	assert.ErrorIs(t, err, remote.ErrNetworkFailure)
	assert.Equal(t, "upload 1", f.dash.Views()[0].Post.Title)

	active := f.center.Active()
	require.Len(t, active, 1, "only the network failure is notified")
	assert.Equal(t, notify.ShortDuration, active[0].Duration)
}

func TestPrefetchComments_Bounded(t *testing.T) {
	f := newFixture(t, "alice", uploads(6))
	ctx := context.Background()
	require.NoError(t, f.dash.Load(ctx))
	f.dash.SetPrefetchConcurrency(2)

	var inflight, peak atomic.Int32
	f.fake.ListCommentsFn = func(_ context.Context, postID string) ([]comments.Comment, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		if postID == "p4" {
			return nil, errOffline
		}
		return []comments.Comment{{ID: postID + "-c"}}, nil
	}

	err := f.dash.PrefetchComments(ctx)
	assert.ErrorIs(t, err, remote.ErrNetworkFailure)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 6, f.fake.Calls("ListComments"))

	for _, v := range f.dash.Views() {
		if v.Post.ID == "p4" {
			assert.False(t, v.CommentsLoaded)
			assert.Equal(t, 1, v.CommentCount)
			continue
		}
		assert.True(t, v.CommentsLoaded, v.Post.ID)
		assert.Equal(t, 1, v.CommentCount)
	}
	assert.Empty(t, f.center.Active(), "background prefetch does not notify")
}
