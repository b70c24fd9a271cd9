package posts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"

	"Pixboard/internal/core/comments"
	"Pixboard/internal/core/votes"
)

const (
	maxTitleGraphemes       = 300
	maxDescriptionGraphemes = 5000
	maxCategoryGraphemes    = 50
	maxTags                 = 10
	maxTagGraphemes         = 30
	defaultFeedLimit        = 20
	maxFeedLimit            = 100
)

type postService struct {
	repo        Repository
	commentRepo comments.Repository
	voteRepo    votes.Repository
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// NewPostService creates a new post service
func NewPostService(
	repo Repository,
	commentRepo comments.Repository,
	voteRepo votes.Repository,
	logger *zap.SugaredLogger,
) Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &postService{
		repo:        repo,
		commentRepo: commentRepo,
		voteRepo:    voteRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost validates the request and stores a new post
func (s *postService) CreatePost(ctx context.Context, authorID, authorName string, req CreatePostRequest) (*Post, error) {
	if authorID == "" {
		return nil, ErrNotAuthorized
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	post := &Post{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		AuthorName:  authorName,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		ImageURL:    req.ImageURL,
		Tags:        normalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Infow("post created",
		"author", authorID,
		"post", post.ID,
		"category", post.Category)

	return post, nil
}

// GetPost returns a single hydrated post
func (s *postService) GetPost(ctx context.Context, viewerID, postID string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, viewerID, []*Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListFeed returns hydrated posts newest first
func (s *postService) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*Post, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := s.hydrate(ctx, viewerID, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListByAuthor returns an author's hydrated posts newest first
func (s *postService) ListByAuthor(ctx context.Context, viewerID, authorID string) ([]*Post, error) {
	if authorID == "" {
		return nil, NewValidationError("author", "required")
	}

	list, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list author posts: %w", err)
	}
	if err := s.hydrate(ctx, viewerID, list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdatePost applies a partial edit after verifying ownership
func (s *postService) UpdatePost(ctx context.Context, callerID, postID string, update PostUpdate) (*Post, error) {
	if update.IsEmpty() {
		return nil, NewValidationError("update", "no fields to update")
	}

	post, err := s.ownedPost(ctx, callerID, postID)
	if err != nil {
		return nil, err
	}

	update.ApplyTo(post)
	post.Title = strings.TrimSpace(post.Title)
	post.Category = strings.TrimSpace(post.Category)
	post.Tags = normalizeTags(post.Tags)
	if err := validateFields(post.Title, post.Description, post.Category, post.Tags); err != nil {
		return nil, err
	}
	post.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.logger.Infow("post updated",
		"caller", callerID,
		"post", postID)

	if err := s.hydrate(ctx, callerID, []*Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post, its thread and its votes
func (s *postService) DeletePost(ctx context.Context, callerID, postID string) error {
	if _, err := s.ownedPost(ctx, callerID, postID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Infow("post deleted",
		"caller", callerID,
		"post", postID)

	return nil
}

func (s *postService) ownedPost(ctx context.Context, callerID, postID string) (*Post, error) {
	if callerID == "" {
		return nil, ErrNotAuthorized
	}
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		s.logger.Warnw("post modification refused: not the author",
			"caller", callerID,
			"author", post.AuthorID,
			"post", postID)
		return nil, ErrNotAuthorized
	}
	return post, nil
}

// hydrate fills tallies, comment counts and the viewer's direction in three batched lookups
func (s *postService) hydrate(ctx context.Context, viewerID string, list []*Post) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}

	tallies, err := s.voteRepo.TalliesForPosts(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load vote tallies: %w", err)
	}
	counts, err := s.commentRepo.CountByPosts(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load comment counts: %w", err)
	}

	var directions map[string]votes.Direction
	if viewerID != "" {
		directions, err = s.voteRepo.DirectionsForPosts(ctx, viewerID, ids)
		if err != nil {
			return fmt.Errorf("failed to load viewer votes: %w", err)
		}
	}

	for _, p := range list {
		tally := tallies[p.ID]
		p.Upvotes = tally.Upvotes
		p.Downvotes = tally.Downvotes
		p.CommentCount = counts[p.ID]
		p.ViewerDirection = votes.DirectionNone
		if d, ok := directions[p.ID]; ok {
			p.ViewerDirection = d
		}
	}
	return nil
}

func (s *postService) validateCreateRequest(req CreatePostRequest) error {
	if strings.TrimSpace(req.ImageURL) == "" {
		return NewValidationError("imageUrl", "required")
	}
	u, err := url.Parse(req.ImageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("imageUrl", "must be an absolute http(s) URL")
	}
	return validateFields(strings.TrimSpace(req.Title), req.Description, strings.TrimSpace(req.Category), normalizeTags(req.Tags))
}

func validateFields(title, description, category string, tags []string) error {
	if title == "" {
		return NewValidationError("title", "required")
	}
	if uniseg.GraphemeClusterCount(title) > maxTitleGraphemes {
		return NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleGraphemes))
	}
	if uniseg.GraphemeClusterCount(description) > maxDescriptionGraphemes {
		return NewValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionGraphemes))
	}
	if category == "" {
		return NewValidationError("category", "required")
	}
	if uniseg.GraphemeClusterCount(category) > maxCategoryGraphemes {
		return NewValidationError("category", fmt.Sprintf("must be at most %d characters", maxCategoryGraphemes))
	}
	if len(tags) > maxTags {
		return NewValidationError("tags", fmt.Sprintf("at most %d tags", maxTags))
	}
	for _, tag := range tags {
		if uniseg.GraphemeClusterCount(tag) > maxTagGraphemes {
			return NewValidationError("tags", fmt.Sprintf("tag %q is longer than %d characters", tag, maxTagGraphemes))
		}
	}
	return nil
}

// normalizeTags trims tags and drops empty ones, keeping order (tags are display-only)
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
