package comments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type commentService struct {
	repo     Repository
	subjects SubjectValidator
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewService creates a new comment service
func NewService(repo Repository, subjects SubjectValidator, logger *zap.SugaredLogger) Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &commentService{
		repo:     repo,
		subjects: subjects,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *commentService) ensurePost(ctx context.Context, postID string) error {
	if postID == "" {
		return ErrPostNotFound
	}
	exists, err := s.subjects.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return ErrPostNotFound
	}
	return nil
}

// ListComments returns a post's thread oldest first
func (s *commentService) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	thread, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if thread == nil {
		thread = []*Comment{}
	}
	return thread, nil
}

// CreateComment validates the body and stores a new comment
func (s *commentService) CreateComment(ctx context.Context, authorID, authorName, postID, body string) (*Comment, error) {
	if authorID == "" {
		return nil, ErrNotAuthorized
	}
	if err := ValidateBody(body); err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		s.logger.Errorw("failed to create comment",
			"error", err,
			"author", authorID,
			"post", postID)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Infow("comment created",
		"author", authorID,
		"post", postID,
		"comment", comment.ID)

	return comment, nil
}

// DeleteComment removes a comment after verifying ownership
func (s *commentService) DeleteComment(ctx context.Context, callerID, postID, commentID string) error {
	if callerID == "" {
		return ErrNotAuthorized
	}

	existing, err := s.repo.GetByID(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if existing.AuthorID != callerID {
		s.logger.Warnw("comment delete refused: not the author",
			"caller", callerID,
			"author", existing.AuthorID,
			"comment", commentID)
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, postID, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.logger.Infow("comment deleted",
		"caller", callerID,
		"post", postID,
		"comment", commentID)

	return nil
}
