package votes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type mockVoteRepository struct {
	mock.Mock
}

func (m *mockVoteRepository) Set(ctx context.Context, postID, voterID string, direction Direction) (Tally, error) {
	args := m.Called(ctx, postID, voterID, direction)
	return args.Get(0).(Tally), args.Error(1)
}

func (m *mockVoteRepository) Get(ctx context.Context, postID, voterID string) (Direction, error) {
	args := m.Called(ctx, postID, voterID)
	return args.Get(0).(Direction), args.Error(1)
}

func (m *mockVoteRepository) GetTally(ctx context.Context, postID string) (Tally, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(Tally), args.Error(1)
}

func (m *mockVoteRepository) TalliesForPosts(ctx context.Context, postIDs []string) (map[string]Tally, error) {
	args := m.Called(ctx, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]Tally), args.Error(1)
}

func (m *mockVoteRepository) DirectionsForPosts(ctx context.Context, voterID string, postIDs []string) (map[string]Direction, error) {
	args := m.Called(ctx, voterID, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]Direction), args.Error(1)
}

func TestVoteService_ValidateInput(t *testing.T) {
	service := NewService(new(mockVoteRepository), nil)
	ctx := context.Background()

	tests := []struct {
		expectedErr error
		name        string
		voterID     string
		postID      string
		direction   Direction
	}{
		{name: "missing voter", voterID: "", postID: "p1", direction: DirectionUp, expectedErr: ErrNotAuthorized},
		{name: "missing post", voterID: "u1", postID: " ", direction: DirectionUp, expectedErr: ErrInvalidSubject},
		{name: "invalid direction", voterID: "u1", postID: "p1", direction: "sideways", expectedErr: ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CastVote(ctx, tt.voterID, tt.postID, tt.direction)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestVoteService_CastVote_ReturnsCanonicalTally(t *testing.T) {
	repo := new(mockVoteRepository)
	service := NewService(repo, nil)
	ctx := context.Background()

	// Another user voted concurrently: server tally is ahead of what the caller expects
	repo.On("Set", ctx, "p1", "u1", DirectionUp).Return(Tally{Upvotes: 7, Downvotes: 2}, nil)

	result, err := service.CastVote(ctx, "u1", "p1", DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Upvotes)
	assert.Equal(t, 2, result.Downvotes)
	assert.Equal(t, DirectionUp, result.Direction)
	repo.AssertExpectations(t)
}

func TestVoteService_CastVote_EmptyTargetMeansRetract(t *testing.T) {
	repo := new(mockVoteRepository)
	service := NewService(repo, nil)
	ctx := context.Background()

	repo.On("Set", ctx, "p1", "u1", DirectionNone).Return(Tally{Upvotes: 3}, nil)

	result, err := service.CastVote(ctx, "u1", "p1", "")
	require.NoError(t, err)
	assert.Equal(t, DirectionNone, result.Direction)
}

func TestVoteService_CastVote_RepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("subject not found passes through", func(t *testing.T) {
		repo := new(mockVoteRepository)
		repo.On("Set", ctx, "gone", "u1", DirectionDown).Return(Tally{}, ErrSubjectNotFound)

		_, err := NewService(repo, nil).CastVote(ctx, "u1", "gone", DirectionDown)
		assert.Equal(t, ErrSubjectNotFound, err)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		repo := new(mockVoteRepository)
		dbErr := errors.New("connection reset")
		repo.On("Set", ctx, "p1", "u1", DirectionDown).Return(Tally{}, dbErr)

		_, err := NewService(repo, nil).CastVote(ctx, "u1", "p1", DirectionDown)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to store vote")
	})
}

func TestVoteService_GetVote_AnonymousIsNone(t *testing.T) {
	repo := new(mockVoteRepository)
	dir, err := NewService(repo, nil).GetVote(context.Background(), "", "p1")
	require.NoError(t, err)
	assert.Equal(t, DirectionNone, dir)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}
