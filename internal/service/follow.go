package service

import (
	"context"
	"log/slog"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

// NewFollowService creates a FollowService.
func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{
		follows: follows,
		users:   users,
		logger:  logger,
	}
}

// Follow makes followerID follow targetID. Following yourself is a
// validation error; following an unknown user is NotFound; following
// someone you already follow is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperror.ValidationFailed("userId", "users cannot follow themselves")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	follow := &model.Follow{FollowerID: followerID, FollowingID: targetID}
	if err := s.follows.Create(ctx, follow); err != nil {
		return err
	}

	s.logger.Info("follow created",
		slog.String("followerID", followerID),
		slog.String("followingID", targetID),
	)
	return nil
}

// Unfollow removes the edge. Idempotent; the target must exist.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.follows.Delete(ctx, followerID, targetID)
}

// IsFollowing reports whether followerID follows targetID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	return s.follows.Exists(ctx, followerID, targetID)
}

// Followers returns the users following userID, as public profiles.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]model.PublicUser, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

// Following returns the users userID follows, as public profiles.
func (s *FollowService) Following(ctx context.Context, userID string) ([]model.PublicUser, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

func publicUsers(users []model.User) []model.PublicUser {
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
