package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
)

// FollowTarget names the bag to follow. OwnerUserID is a client-side hint that lets
// the workspace reject a self-follow early; the service never trusts it.
type FollowTarget struct {
	BagID       string
	OwnerUserID string
}

type FollowService struct {
	Follows repo.FollowRepository
	Bags    repo.BagRepository
	Logger  *logrus.Logger
}

func NewFollowService(follows repo.FollowRepository, bags repo.BagRepository, logger *logrus.Logger) *FollowService {
	return &FollowService{Follows: follows, Bags: bags, Logger: logger}
}

func (s *FollowService) Followers(ctx context.Context, bagID string) ([]entity.Follower, error) {
	out, err := s.Follows.ListFollowers(ctx, bagID)
	if err != nil {
		if isNotFound(err) {
			return []entity.Follower{}, nil
		}
		return nil, internal("fetch followers", err)
	}
	return out, nil
}

func (s *FollowService) Following(ctx context.Context, userID string) ([]entity.FollowedBag, error) {
	out, err := s.Follows.ListFollowing(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return []entity.FollowedBag{}, nil
		}
		return nil, internal("fetch following", err)
	}
	return out, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, bagID string) (bool, error) {
	ok, err := s.Follows.Exists(ctx, userID, bagID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, internal("check follow", err)
	}
	return ok, nil
}

// Follow subscribes userID to the target bag. The owner is read from the bag row.
// Following twice is not an error.
func (s *FollowService) Follow(ctx context.Context, userID string, target FollowTarget) error {
	b, err := s.Bags.GetByID(ctx, target.BagID)
	if err != nil {
		return notFoundOr("follow", msgBagNotFound, err)
	}
	if b.UserID == userID {
		return apperrors.ErrSelfFollow
	}

	created, err := s.Follows.Follow(ctx, userID, target.BagID)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return notFoundOr("follow", msgBagNotFound, err)
	}
	if !created {
		s.Logger.WithField("user_id", userID).WithField("bag_id", target.BagID).Debug("already following")
	}
	return nil
}

// Unfollow removes the subscription. Unfollowing a bag that is not followed is not an error.
func (s *FollowService) Unfollow(ctx context.Context, userID, bagID string) error {
	if _, err := s.Follows.Unfollow(ctx, userID, bagID); err != nil && !isNotFound(err) {
		return internal("unfollow", err)
	}
	return nil
}
