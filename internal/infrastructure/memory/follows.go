package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type followRepo struct{ s *Store }

func (r *followRepo) Add(_ context.Context, f *entity.Follow) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.users[f.FollowerID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.users[f.FollowedID]; !ok {
			return repository.ErrNotFound
		}
		k := followKey{f.FollowerID, f.FollowedID}
		if _, ok := st.follows[k]; !ok {
			st.follows[k] = *f
		}
		return nil
	})
}

func (r *followRepo) Remove(_ context.Context, followerID, followedID int64) error {
	return r.s.update(func(st *state) error {
		delete(st.follows, followKey{followerID, followedID})
		return nil
	})
}

func (r *followRepo) Exists(_ context.Context, followerID, followedID int64) (bool, error) {
	var ok bool
	err := r.s.view(func(st *state) error {
		_, ok = st.follows[followKey{followerID, followedID}]
		return nil
	})
	return ok, err
}

func (r *followRepo) Followers(_ context.Context, userID int64, page repository.Page) ([]entity.FollowEntry, int, error) {
	return r.list(page, func(f entity.Follow) (int64, bool) { return f.FollowerID, f.FollowedID == userID })
}

func (r *followRepo) Following(_ context.Context, userID int64, page repository.Page) ([]entity.FollowEntry, int, error) {
	return r.list(page, func(f entity.Follow) (int64, bool) { return f.FollowedID, f.FollowerID == userID })
}

func (r *followRepo) list(page repository.Page, pick func(entity.Follow) (int64, bool)) ([]entity.FollowEntry, int, error) {
	var (
		out   []entity.FollowEntry
		total int
	)
	err := r.s.view(func(st *state) error {
		var all []entity.FollowEntry
		for _, f := range st.follows {
			other, ok := pick(f)
			if !ok {
				continue
			}
			u, found := st.loadUser(other)
			if !found {
				continue
			}
			all = append(all, entity.FollowEntry{User: u, Timestamp: f.Timestamp})
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].Timestamp.Equal(all[j].Timestamp) {
				return all[i].Timestamp.After(all[j].Timestamp)
			}
			return all[i].User.ID < all[j].User.ID
		})
		total = len(all)
		out = paginate(all, page)
		return nil
	})
	return out, total, err
}

func (r *followRepo) Counts(_ context.Context, userID int64) (int, int, error) {
	var followers, following int
	err := r.s.view(func(st *state) error {
		for k := range st.follows {
			if k.follower == k.followed {
				continue
			}
			if k.followed == userID {
				followers++
			}
			if k.follower == userID {
				following++
			}
		}
		return nil
	})
	return followers, following, err
}

func (r *followRepo) BackfillSelf(_ context.Context, now time.Time) (int64, error) {
	var added int64
	err := r.s.update(func(st *state) error {
		for id := range st.users {
			k := followKey{id, id}
			if _, ok := st.follows[k]; ok {
				continue
			}
			st.follows[k] = entity.Follow{FollowerID: id, FollowedID: id, Timestamp: now}
			added++
		}
		return nil
	})
	return added, err
}
