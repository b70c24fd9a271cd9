// Package remote is the HTTP client for the Pixboard interaction service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"Pixboard/internal/client/session"
	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/posts"
	"Pixboard/internal/core/votes"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultFailureThreshold = 5
	defaultOpenDuration     = 30 * time.Second
	maxErrorBody            = 64 << 10
	maxResponseBody         = 8 << 20
)

// Endpoint groups tracked by the circuit breaker
const (
	groupComments = "comments"
	groupVotes    = "votes"
	groupPosts    = "posts"
)

// Config configures a Client
type Config struct {
	Tokens     session.TokenSource
	Logger     *zap.SugaredLogger
	BaseURL    string
	Timeout    time.Duration
	RetryMax   int
	RetryWait  time.Duration
	HTTPClient *http.Client
}

// Client implements Service over HTTP.
// GET requests are retried on connection errors and 5xx; mutations are sent once.
type Client struct {
	tokens  session.TokenSource
	http    *retryablehttp.Client
	breaker *circuitBreaker
	logger  *zap.SugaredLogger
	baseURL string
}

var _ Service = (*Client)(nil)

type idempotentKey struct{}

// NewClient creates a client for the service at cfg.BaseURL
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = session.Anonymous
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}

	rc := retryablehttp.NewClient()
	if cfg.HTTPClient != nil {
		rc.HTTPClient = cfg.HTTPClient
	}
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWait > 0 {
		rc.RetryWaitMin = cfg.RetryWait
		rc.RetryWaitMax = 4 * cfg.RetryWait
	}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{cfg.Logger}

	return &Client{
		tokens:  cfg.Tokens,
		http:    rc,
		breaker: newCircuitBreaker(defaultFailureThreshold, defaultOpenDuration, cfg.Logger),
		logger:  cfg.Logger,
		baseURL: base.String(),
	}, nil
}

// checkRetry applies the default policy to GETs only
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if idem, _ := ctx.Value(idempotentKey{}).(bool); !idem {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

type commentList struct {
	Comments []comments.Comment `json:"comments"`
}

type postList struct {
	Posts []posts.Post `json:"posts"`
}

// ListComments fetches a post's thread
func (c *Client) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	var out commentList
	if err := c.do(ctx, groupComments, http.MethodGet, postPath(postID, "comments"), nil, &out); err != nil {
		return nil, err
	}
	if out.Comments == nil {
		out.Comments = []comments.Comment{}
	}
	return out.Comments, nil
}

// CreateComment adds a comment as the session user
func (c *Client) CreateComment(ctx context.Context, postID, body string) (comments.Comment, error) {
	var out comments.Comment
	err := c.do(ctx, groupComments, http.MethodPost, postPath(postID, "comments"), comments.CreateCommentRequest{Body: body}, &out)
	return out, err
}

// DeleteComment removes one of the session user's comments
func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	return c.do(ctx, groupComments, http.MethodDelete, postPath(postID, "comments", commentID), nil, nil)
}

// CastVote sets the session user's vote to direction
func (c *Client) CastVote(ctx context.Context, postID string, direction votes.Direction) (votes.VoteResult, error) {
	var out votes.VoteResult
	err := c.do(ctx, groupVotes, http.MethodPost, postPath(postID, "vote"), votes.CastVoteRequest{Direction: direction}, &out)
	return out, err
}

// CreatePost publishes a new post
func (c *Client) CreatePost(ctx context.Context, req posts.CreatePostRequest) (posts.Post, error) {
	var out posts.Post
	err := c.do(ctx, groupPosts, http.MethodPost, "/api/posts", req, &out)
	return out, err
}

// GetPost fetches one post
func (c *Client) GetPost(ctx context.Context, postID string) (posts.Post, error) {
	var out posts.Post
	err := c.do(ctx, groupPosts, http.MethodGet, postPath(postID), nil, &out)
	return out, err
}

// UpdatePost edits one of the session user's posts
func (c *Client) UpdatePost(ctx context.Context, postID string, update posts.PostUpdate) (posts.Post, error) {
	var out posts.Post
	err := c.do(ctx, groupPosts, http.MethodPut, postPath(postID), update, &out)
	return out, err
}

// DeletePost removes one of the session user's posts
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, groupPosts, http.MethodDelete, postPath(postID), nil, nil)
}

// ListFeed fetches a page of the newest posts
func (c *Client) ListFeed(ctx context.Context, limit, offset int) ([]posts.Post, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out postList
	if err := c.do(ctx, groupPosts, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return nonNilPosts(out.Posts), nil
}

// ListUserPosts fetches one user's posts
func (c *Client) ListUserPosts(ctx context.Context, userID string) ([]posts.Post, error) {
	var out postList
	if err := c.do(ctx, groupPosts, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/posts", nil, &out); err != nil {
		return nil, err
	}
	return nonNilPosts(out.Posts), nil
}

func nonNilPosts(list []posts.Post) []posts.Post {
	if list == nil {
		return []posts.Post{}
	}
	return list
}

func postPath(postID string, rest ...string) string {
	var b strings.Builder
	b.WriteString("/api/posts/")
	b.WriteString(url.PathEscape(postID))
	for _, seg := range rest {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

// do sends one logical request and decodes a 2xx JSON body into out
func (c *Client) do(ctx context.Context, group, method, path string, body, out any) error {
	if err := c.breaker.canAttempt(group); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			c.breaker.abandon(group)
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
	}

	if method == http.MethodGet {
		ctx = context.WithValue(ctx, idempotentKey{}, true)
	}
	var rawBody interface{}
	if payload != nil {
		rawBody = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, rawBody)
	if err != nil {
		c.breaker.abandon(group)
		return fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.breaker.abandon(group)
		} else {
			c.breaker.recordFailure(group, err)
		}
		c.logger.Debugw("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	c.breaker.recordSuccess(group)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		srvErr := decodeServerError(resp)
		c.logger.Debugw("request rejected",
			"method", method,
			"path", path,
			"status", srvErr.StatusCode,
			"type", srvErr.Type)
		return fmt.Errorf("%s %s: %w", method, path, srvErr)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s %s: %w: reading response: %w", method, path, ErrNetworkFailure, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: decoding response: %w", method, path, ErrNetworkFailure, err)
	}
	return nil
}

func decodeServerError(resp *http.Response) *ServerError {
	srvErr := &ServerError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && (envelope.Error != "" || envelope.Message != "") {
		srvErr.Type = envelope.Error
		srvErr.Message = envelope.Message
		return srvErr
	}

	srvErr.Type = strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "")
	srvErr.Message = strings.TrimSpace(string(bytes.ToValidUTF8(raw, nil)))
	return srvErr
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveledLogger{}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
