package postgres

import (
	"context"
	"time"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type FollowRepository struct {
	db DBTX
}

func (r *FollowRepository) Add(ctx context.Context, f *entity.Follow) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO follows (follower_id, followed_id, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, f.FollowerID, f.FollowedID, f.Timestamp)
	return mapErr(err)
}

func (r *FollowRepository) Remove(ctx context.Context, followerID, followedID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`, followerID, followedID)
	return err
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)
	`, followerID, followedID).Scan(&ok)
	return ok, err
}

func (r *FollowRepository) Followers(ctx context.Context, userID int64, page repository.Page) ([]entity.FollowEntry, int, error) {
	return r.list(ctx, "followed_id", "follower_id", userID, page)
}

func (r *FollowRepository) Following(ctx context.Context, userID int64, page repository.Page) ([]entity.FollowEntry, int, error) {
	return r.list(ctx, "follower_id", "followed_id", userID, page)
}

// list selects edges where match = userID and joins the user on the other end.
func (r *FollowRepository) list(ctx context.Context, match, other string, userID int64, page repository.Page) ([]entity.FollowEntry, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM follows WHERE `+match+` = $1`, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT f.timestamp, u.id, u.email, u.username, u.name, u.avatar_hash, u.avatar_url, u.member_since, u.last_seen
		FROM follows f
		JOIN users u ON u.id = f.`+other+`
		WHERE f.`+match+` = $1
		ORDER BY f.timestamp DESC, u.id
		LIMIT $2 OFFSET $3
	`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []entity.FollowEntry
	for rows.Next() {
		var (
			e entity.FollowEntry
			u entity.User
		)
		if err := rows.Scan(&e.Timestamp, &u.ID, &u.Email, &u.Username, &u.Name,
			&u.AvatarHash, &u.AvatarURL, &u.MemberSince, &u.LastSeen); err != nil {
			return nil, 0, err
		}
		e.User = &u
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *FollowRepository) Counts(ctx context.Context, userID int64) (int, int, error) {
	var followers, following int
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM follows WHERE followed_id = $1 AND follower_id <> $1),
			(SELECT count(*) FROM follows WHERE follower_id = $1 AND followed_id <> $1)
	`, userID).Scan(&followers, &following)
	return followers, following, err
}

func (r *FollowRepository) BackfillSelf(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `
		INSERT INTO follows (follower_id, followed_id, timestamp)
		SELECT id, id, $1 FROM users
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.FollowRepository = (*FollowRepository)(nil)
