package votes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type voteService struct {
	repo   Repository
	logger *zap.SugaredLogger
}

// NewService creates a new vote service
func NewService(repo Repository, logger *zap.SugaredLogger) Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &voteService{
		repo:   repo,
		logger: logger,
	}
}

// CastVote stores the target direction and returns the canonical tally.
// Concurrent votes from other users are reflected in the returned counts; callers must treat
// them as authoritative.
func (s *voteService) CastVote(ctx context.Context, voterID, postID string, target Direction) (*VoteResult, error) {
	if voterID == "" {
		return nil, ErrNotAuthorized
	}
	if strings.TrimSpace(postID) == "" {
		return nil, ErrInvalidSubject
	}
	target, err := ParseDirection(string(target))
	if err != nil {
		return nil, err
	}

	tally, err := s.repo.Set(ctx, postID, voterID, target)
	if err != nil {
		if err == ErrSubjectNotFound {
			return nil, err
		}
		s.logger.Errorw("failed to store vote",
			"error", err,
			"voter", voterID,
			"post", postID,
			"direction", target)
		return nil, fmt.Errorf("failed to store vote: %w", err)
	}

	s.logger.Infow("vote cast",
		"voter", voterID,
		"post", postID,
		"direction", target,
		"upvotes", tally.Upvotes,
		"downvotes", tally.Downvotes)

	return &VoteResult{
		Upvotes:   tally.Upvotes,
		Downvotes: tally.Downvotes,
		Direction: target,
	}, nil
}

// GetVote retrieves a voter's direction on a post
func (s *voteService) GetVote(ctx context.Context, voterID, postID string) (Direction, error) {
	if voterID == "" {
		return DirectionNone, nil
	}
	return s.repo.Get(ctx, postID, voterID)
}
