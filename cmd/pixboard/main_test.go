package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pixboard/internal/api/middleware"
	"Pixboard/internal/api/routes"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
	"Pixboard/internal/db/memory"
)

const testSecret = "cli-secret"

type fixture struct {
	server *httptest.Server
	posts  posts.Service
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	postRepo := memory.NewPostRepository(db)
	commentRepo := memory.NewCommentRepository(db)
	voteRepo := memory.NewVoteRepository(db)
	svc := routes.Services{
		Posts:    posts.NewPostService(postRepo, commentRepo, voteRepo, nil),
		Comments: comments.NewService(commentRepo, postRepo, nil),
		Votes:    votes.NewService(voteRepo, nil),
	}
	handler, err := routes.NewRouter(svc, routes.Options{JWTSecret: []byte(testSecret)})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	token, err := middleware.IssueToken([]byte(testSecret), "alice", "Alice", time.Hour)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PIXBOARD_TOKEN", "")
	t.Setenv("PIXBOARD_RETRY_MAX", "0")
	return &fixture{server: srv, posts: svc.Posts, token: token}
}

func (f *fixture) createPost(t *testing.T, authorID, title string) string {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), authorID, authorID, posts.CreatePostRequest{
		Title:    title,
		Category: "street",
		ImageURL: "https://img.example/" + title + ".jpg",
	})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--api", f.server.URL}, args...)
	err := execute(context.Background(), &out, full)
	return out.String(), err
}

func (f *fixture) runAs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return f.run(t, append([]string{"--token", f.token}, args...)...)
}

func TestCLI_Token(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "token", "--user", "bob", "--name", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), ".")), "prints a JWT")
}

func TestCLI_FeedAndVote(t *testing.T) {
	f := newFixture(t)
	postID := f.createPost(t, "bob", "Crosswalk")

	out, err := f.run(t, "feed")
	require.NoError(t, err)
	assert.Contains(t, out, "Crosswalk")
	assert.Contains(t, out, "0 up / 0 down, 0 comments")

	out, err = f.runAs(t, "vote", postID, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "▲ +1")

	// clicking the active direction again retracts
	out, err = f.runAs(t, "vote", postID, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "· +0")

	_, err = f.runAs(t, "vote", postID, "sideways")
	assert.Error(t, err)
}

func TestCLI_CommentLifecycle(t *testing.T) {
	f := newFixture(t)
	postID := f.createPost(t, "bob", "Tram")

	out, err := f.runAs(t, "comment", postID, "great", "framing")
	require.NoError(t, err)
	assert.Contains(t, out, "great framing")
	assert.Contains(t, out, "1 comments")

	out, err = f.run(t, "comments", postID)
	require.NoError(t, err)
	assert.Contains(t, out, "great framing")

	_, err = f.run(t, "comment", postID, "anonymous")
	assert.Error(t, err, "signed-out users cannot comment")
}

func TestCLI_DashboardEditDelete(t *testing.T) {
	f := newFixture(t)
	mine := f.createPost(t, "alice", "Bridge")
	f.createPost(t, "bob", "Market")

	out, err := f.runAs(t, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Bridge")
	assert.NotContains(t, out, "Market")

	out, err = f.runAs(t, "edit", mine, "--title", "Bridge at night")
	require.NoError(t, err)
	assert.Contains(t, out, "Bridge at night")
	assert.Contains(t, out, "Upload updated.")

	out, err = f.runAs(t, "delete", mine)
	require.NoError(t, err)
	assert.Contains(t, out, "Upload deleted.")

	out, err = f.runAs(t, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "You have no uploads.")

	_, err = f.run(t, "dashboard")
	assert.Error(t, err, "dashboard requires a session")
}

func TestCLI_NetworkFailureRaisesNotification(t *testing.T) {
	f := newFixture(t)
	f.server.Close()

	out, err := f.runAs(t, "dashboard")
	require.Error(t, err)
	assert.Contains(t, out, "[error] Error:")
}
