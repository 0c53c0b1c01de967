package repository

import (
	"context"
	"time"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

type FollowRepository interface {
	// Add is a no-op when the edge exists.
	Add(ctx context.Context, f *entity.Follow) error
	// Remove is a no-op when the edge is absent.
	Remove(ctx context.Context, followerID, followedID int64) error
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	// Followers lists who follows userID, newest edge first.
	Followers(ctx context.Context, userID int64, page Page) ([]entity.FollowEntry, int, error)
	// Following lists whom userID follows, newest edge first.
	Following(ctx context.Context, userID int64, page Page) ([]entity.FollowEntry, int, error)
	// Counts returns follower and following counts without the self edge.
	Counts(ctx context.Context, userID int64) (followers, following int, err error)
	// BackfillSelf adds the missing self edges and returns how many were added.
	BackfillSelf(ctx context.Context, now time.Time) (int64, error)
}
