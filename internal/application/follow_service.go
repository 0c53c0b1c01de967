package application

import (
	"context"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type FollowService struct {
	Store repository.Store
	Now   Clock

	PerPage int
}

func (s *FollowService) target(ctx context.Context, p entity.Principal, username string) (*entity.User, *entity.User, error) {
	me, ok := p.User()
	if !ok {
		return nil, nil, ErrUnauthenticated
	}
	if !p.Can(entity.PermFollow) {
		return nil, nil, ErrForbidden
	}
	other, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}
	return me, other, nil
}

// Follow adds the edge me -> username. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, p entity.Principal, username string) error {
	me, other, err := s.target(ctx, p, username)
	if err != nil {
		return err
	}
	return s.Store.Follows().Add(ctx, &entity.Follow{FollowerID: me.ID, FollowedID: other.ID, Timestamp: s.Now.now()})
}

// Unfollow removes the edge me -> username. Removing a missing edge is a
// no-op; unfollowing oneself is allowed.
func (s *FollowService) Unfollow(ctx context.Context, p entity.Principal, username string) error {
	me, other, err := s.target(ctx, p, username)
	if err != nil {
		return err
	}
	return s.Store.Follows().Remove(ctx, me.ID, other.ID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	return s.Store.Follows().Exists(ctx, followerID, followedID)
}

func (s *FollowService) IsFollowedBy(ctx context.Context, userID, followerID int64) (bool, error) {
	return s.Store.Follows().Exists(ctx, followerID, userID)
}

func (s *FollowService) Followers(ctx context.Context, username string, page int) ([]entity.FollowEntry, int, error) {
	u, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, ErrUserNotFound
	}
	return s.Store.Follows().Followers(ctx, u.ID, repository.NewPage(page, s.PerPage))
}

func (s *FollowService) Following(ctx context.Context, username string, page int) ([]entity.FollowEntry, int, error) {
	u, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, ErrUserNotFound
	}
	return s.Store.Follows().Following(ctx, u.ID, repository.NewPage(page, s.PerPage))
}
