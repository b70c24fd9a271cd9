package votecoord

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"Pixboard/internal/client/keylock"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/client/remote/remotetest"
	"Pixboard/internal/core/votes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type signedIn string

func (s signedIn) IsAuthenticated() bool { return s != "" }
func (s signedIn) CurrentUserID() string { return string(s) }

var errOffline = fmt.Errorf("dial tcp: %w", remote.ErrNetworkFailure)

// fakeServer tracks one voter's stance and answers like the real service
type fakeServer struct {
	tally     votes.Tally
	direction votes.Direction
	mu        sync.Mutex
}

func (s *fakeServer) cast(_ context.Context, _ string, target votes.Direction) (votes.VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally = s.tally.Apply(s.direction, target)
	s.direction = target
	return votes.VoteResult{Upvotes: s.tally.Upvotes, Downvotes: s.tally.Downvotes, Direction: target}, nil
}

func TestCastVote_ScenarioP1(t *testing.T) {
	ctx := context.Background()
	server := &fakeServer{tally: votes.Tally{Upvotes: 4, Downvotes: 1}, direction: votes.DirectionNone}
	fake := &remotetest.Fake{CastVoteFn: server.cast}
	c := New(fake, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{Upvotes: 4, Downvotes: 1}, votes.DirectionNone)

	st, err := c.CastVote(ctx, "p1", votes.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, VoteState{Tally: votes.Tally{Upvotes: 5, Downvotes: 1}, Direction: votes.DirectionUp}, st)

	gate := remotetest.NewGate(1)
	fake.CastVoteFn = func(ctx context.Context, _ string, target votes.Direction) (votes.VoteResult, error) {
		assert.Equal(t, votes.DirectionNone, target, "retraction sends the target direction")
		if err := gate.Wait(ctx); err != nil {
			return votes.VoteResult{}, err
		}
		return votes.VoteResult{}, errOffline
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.CastVote(ctx, "p1", votes.DirectionUp)
		done <- err
	}()
	<-gate.Entered()

	optimistic, _ := c.State("p1")
	assert.Equal(t, VoteState{Tally: votes.Tally{Upvotes: 4, Downvotes: 1}, Direction: votes.DirectionNone, Pending: true}, optimistic)

	gate.Release()
	assert.ErrorIs(t, <-done, remote.ErrNetworkFailure)

	restored, _ := c.State("p1")
	assert.Equal(t, VoteState{Tally: votes.Tally{Upvotes: 5, Downvotes: 1}, Direction: votes.DirectionUp}, restored)
}

func TestCastVote_DeltaRules(t *testing.T) {
	tests := []struct {
		name    string
		start   votes.Direction
		clicked votes.Direction
		want    VoteState
		target  votes.Direction
	}{
		{"none to up", votes.DirectionNone, votes.DirectionUp,
			VoteState{Tally: votes.Tally{Upvotes: 3, Downvotes: 2}, Direction: votes.DirectionUp}, votes.DirectionUp},
		{"none to down", votes.DirectionNone, votes.DirectionDown,
			VoteState{Tally: votes.Tally{Upvotes: 2, Downvotes: 3}, Direction: votes.DirectionDown}, votes.DirectionDown},
		{"up to down", votes.DirectionUp, votes.DirectionDown,
			VoteState{Tally: votes.Tally{Upvotes: 1, Downvotes: 3}, Direction: votes.DirectionDown}, votes.DirectionDown},
		{"down to up", votes.DirectionDown, votes.DirectionUp,
			VoteState{Tally: votes.Tally{Upvotes: 3, Downvotes: 1}, Direction: votes.DirectionUp}, votes.DirectionUp},
		{"retract up", votes.DirectionUp, votes.DirectionUp,
			VoteState{Tally: votes.Tally{Upvotes: 1, Downvotes: 2}, Direction: votes.DirectionNone}, votes.DirectionNone},
		{"retract down", votes.DirectionDown, votes.DirectionDown,
			VoteState{Tally: votes.Tally{Upvotes: 2, Downvotes: 1}, Direction: votes.DirectionNone}, votes.DirectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &fakeServer{tally: votes.Tally{Upvotes: 2, Downvotes: 2}, direction: tt.start}
			var sent votes.Direction
			fake := &remotetest.Fake{
				CastVoteFn: func(ctx context.Context, postID string, target votes.Direction) (votes.VoteResult, error) {
					sent = target
					return server.cast(ctx, postID, target)
				},
			}
			c := New(fake, signedIn("alice"), nil)
			c.Seed("p1", votes.Tally{Upvotes: 2, Downvotes: 2}, tt.start)

			got, err := c.CastVote(context.Background(), "p1", tt.clicked)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.target, sent)
		})
	}
}

func TestCastVote_ReplaysClickSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seed := votes.Tally{Upvotes: 10, Downvotes: 7}
	server := &fakeServer{tally: seed, direction: votes.DirectionNone}
	c := New(&remotetest.Fake{CastVoteFn: server.cast}, signedIn("alice"), nil)
	c.Seed("p1", seed, votes.DirectionNone)

	model := VoteState{Tally: seed, Direction: votes.DirectionNone}
	for i := 0; i < 200; i++ {
		clicked := votes.DirectionUp
		if rng.Intn(2) == 0 {
			clicked = votes.DirectionDown
		}

		target := votes.Transition(model.Direction, clicked)
		model.Tally = model.Tally.Apply(model.Direction, target)
		model.Direction = target

		got, err := c.CastVote(context.Background(), "p1", clicked)
		require.NoError(t, err)
		require.Equal(t, model, got, "click %d", i)
	}
}

func TestCastVote_ServerTallyWins(t *testing.T) {
	fake := &remotetest.Fake{
		CastVoteFn: func(context.Context, string, votes.Direction) (votes.VoteResult, error) {
			// other users voted meanwhile
			return votes.VoteResult{Upvotes: 9, Downvotes: 3, Direction: votes.DirectionUp}, nil
		},
	}
	c := New(fake, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{Upvotes: 4, Downvotes: 1}, votes.DirectionNone)

	got, err := c.CastVote(context.Background(), "p1", votes.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, votes.Tally{Upvotes: 9, Downvotes: 3}, got.Tally)
}

func TestCastVote_PendingRejectsClick(t *testing.T) {
	gate := remotetest.NewGate(1)
	fake := &remotetest.Fake{
		CastVoteFn: func(ctx context.Context, _ string, target votes.Direction) (votes.VoteResult, error) {
			if err := gate.Wait(ctx); err != nil {
				return votes.VoteResult{}, err
			}
			return votes.VoteResult{Upvotes: 1, Direction: target}, nil
		},
	}
	c := New(fake, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{}, votes.DirectionNone)
	c.Seed("p2", votes.Tally{}, votes.DirectionNone)

	done := make(chan error, 1)
	go func() {
		_, err := c.CastVote(context.Background(), "p1", votes.DirectionUp)
		done <- err
	}()
	<-gate.Entered()

	during, _ := c.State("p1")
	st, err := c.CastVote(context.Background(), "p1", votes.DirectionDown)
	assert.ErrorIs(t, err, ErrVotePending)
	assert.ErrorIs(t, err, keylock.ErrConflictRejected)
	assert.Equal(t, during, st)
	after, _ := c.State("p1")
	assert.Equal(t, during, after, "rejected click changes nothing")
	assert.Equal(t, 1, fake.Calls("CastVote"))

	// other posts are not blocked
	gate.Release()
	_, err = c.CastVote(context.Background(), "p2", votes.DirectionUp)
	require.NoError(t, err)
	require.NoError(t, <-done)

	final, _ := c.State("p1")
	assert.False(t, final.Pending)
}

func TestCastVote_LocalRejections(t *testing.T) {
	fake := &remotetest.Fake{}

	anon := New(fake, nil, nil)
	anon.Seed("p1", votes.Tally{}, votes.DirectionNone)
	_, err := anon.CastVote(context.Background(), "p1", votes.DirectionUp)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	c := New(fake, signedIn("alice"), nil)
	_, err = c.CastVote(context.Background(), "unseeded", votes.DirectionUp)
	assert.ErrorIs(t, err, ErrUnknownPost)

	c.Seed("p1", votes.Tally{}, votes.DirectionNone)
	_, err = c.CastVote(context.Background(), "p1", votes.DirectionNone)
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, fake.Calls("CastVote"))
}

func TestSeed_DoesNotClobber(t *testing.T) {
	c := New(&remotetest.Fake{}, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{Upvotes: 4, Downvotes: 1}, votes.DirectionUp)
	c.Seed("p1", votes.Tally{Upvotes: 100}, votes.DirectionDown)

	st, ok := c.State("p1")
	require.True(t, ok)
	assert.Equal(t, votes.Tally{Upvotes: 4, Downvotes: 1}, st.Tally)
	assert.Equal(t, votes.DirectionUp, st.Direction)

	c.Seed("p2", votes.Tally{}, "")
	st, _ = c.State("p2")
	assert.Equal(t, votes.DirectionNone, st.Direction)
}

func TestForget_DiscardsInFlightVote(t *testing.T) {
	gate := remotetest.NewGate(1)
	fake := &remotetest.Fake{
		CastVoteFn: func(ctx context.Context, _ string, target votes.Direction) (votes.VoteResult, error) {
			if err := gate.Wait(ctx); err != nil {
				return votes.VoteResult{}, err
			}
			return votes.VoteResult{Upvotes: 1, Direction: target}, nil
		},
	}
	c := New(fake, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{}, votes.DirectionNone)

	done := make(chan error, 1)
	go func() {
		_, err := c.CastVote(context.Background(), "p1", votes.DirectionUp)
		done <- err
	}()
	<-gate.Entered()

	c.Forget("p1")
	gate.Release()
	require.NoError(t, <-done)

	_, ok := c.State("p1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestRemove_IgnoresLaterSeeds(t *testing.T) {
	fake := &remotetest.Fake{}
	c := New(fake, signedIn("alice"), nil)
	c.Seed("p1", votes.Tally{Upvotes: 2}, votes.DirectionUp)

	c.Remove("p1")
	c.Seed("p1", votes.Tally{Upvotes: 2}, votes.DirectionUp)

	_, ok := c.State("p1")
	assert.False(t, ok, "removed post is not seeded again")
	_, err := c.CastVote(context.Background(), "p1", votes.DirectionDown)
	assert.ErrorIs(t, err, ErrUnknownPost)
	assert.Equal(t, 0, fake.Calls("CastVote"))

	// forgetting is not removal
	c.Seed("p2", votes.Tally{}, votes.DirectionNone)
	c.Forget("p2")
	c.Seed("p2", votes.Tally{Downvotes: 1}, votes.DirectionDown)
	st, ok := c.State("p2")
	require.True(t, ok)
	assert.Equal(t, votes.DirectionDown, st.Direction)
}

func TestSubscribe(t *testing.T) {
	c := New(&remotetest.Fake{}, signedIn("alice"), nil)

	var mu sync.Mutex
	count := 0
	cancel := c.Subscribe(func(postID string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "p1", postID)
		count++
	})
	defer cancel()

	c.Seed("p1", votes.Tally{}, votes.DirectionNone)
	_, err := c.CastVote(context.Background(), "p1", votes.DirectionUp)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, count, "seed, optimistic, confirmed")
}
