package vote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pixboard/internal/api/middleware"
	"Pixboard/internal/core/votes"
)

// mockVoteService implements votes.Service for testing
type mockVoteService struct {
	castFunc func(ctx context.Context, voterID, postID string, target votes.Direction) (*votes.VoteResult, error)
}

func (m *mockVoteService) CastVote(ctx context.Context, voterID, postID string, target votes.Direction) (*votes.VoteResult, error) {
	if m.castFunc != nil {
		return m.castFunc(ctx, voterID, postID, target)
	}
	return &votes.VoteResult{Upvotes: 1, Direction: target}, nil
}

func (m *mockVoteService) GetVote(ctx context.Context, voterID, postID string) (votes.Direction, error) {
	return votes.DirectionNone, nil
}

func serve(t *testing.T, svc votes.Service, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Post("/api/posts/{postID}/vote", NewCastVoteHandler(svc, nil).HandleCastVote)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/p1/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.SetTestUser(req.Context(), userID, ""))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCastVoteHandler_Success(t *testing.T) {
	var gotVoter, gotPost string
	svc := &mockVoteService{
		castFunc: func(_ context.Context, voterID, postID string, target votes.Direction) (*votes.VoteResult, error) {
			gotVoter, gotPost = voterID, postID
			return &votes.VoteResult{Upvotes: 4, Downvotes: 1, Direction: target}, nil
		},
	}

	w := serve(t, svc, "alice", `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", gotVoter)
	assert.Equal(t, "p1", gotPost)

	var result votes.VoteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 4, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)
	assert.Equal(t, votes.DirectionUp, result.Direction)
}

func TestCastVoteHandler_RequiresAuth(t *testing.T) {
	w := serve(t, &mockVoteService{}, "", `{"direction":"up"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthRequired")
}

func TestCastVoteHandler_InvalidBody(t *testing.T) {
	w := serve(t, &mockVoteService{}, "alice", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCastVoteHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		errorType  string
		wantStatus int
	}{
		{name: "post gone", err: votes.ErrSubjectNotFound, wantStatus: http.StatusNotFound, errorType: "PostNotFound"},
		{name: "bad direction", err: votes.ErrInvalidDirection, wantStatus: http.StatusBadRequest, errorType: "InvalidRequest"},
		{name: "internal", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, errorType: "InternalServerError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockVoteService{
				castFunc: func(context.Context, string, string, votes.Direction) (*votes.VoteResult, error) {
					return nil, tt.err
				},
			}
			w := serve(t, svc, "alice", `{"direction":"down"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.errorType)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}
