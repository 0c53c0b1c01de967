package memory

import (
	"context"
	"errors"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type userRepo struct{ s *Store }

// loadUser returns a detached copy with its role attached.
func (st *state) loadUser(id int64) (*entity.User, bool) {
	u, ok := st.users[id]
	if !ok {
		return nil, false
	}
	if role, ok := st.roles[u.RoleID]; ok {
		u.Role = &role
	} else {
		u.Role = nil
	}
	return &u, true
}

func (st *state) checkUnique(u *entity.User) error {
	for id, other := range st.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email || other.Username == u.Username {
			return repository.ErrConflict
		}
	}
	return nil
}

func stripUser(u *entity.User) entity.User {
	cp := *u
	cp.Role = nil
	return cp
}

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.roles[u.RoleID]; !ok {
			return repository.ErrNotFound
		}
		if err := st.checkUnique(u); err != nil {
			return err
		}
		st.userSeq++
		u.ID = st.userSeq
		st.users[u.ID] = stripUser(u)
		return nil
	})
}

func (r *userRepo) findOne(match func(entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.s.view(func(st *state) error {
		for _, id := range sortedKeys(st.users) {
			if match(st.users[id]) {
				out, _ = st.loadUser(id)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	var out *entity.User
	err := r.s.view(func(st *state) error {
		u, ok := st.loadUser(id)
		if !ok {
			return repository.ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	return r.findOne(func(u entity.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.findOne(func(u entity.User) bool { return u.Username == username })
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(r.GetByEmail(ctx, email))
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(r.GetByUsername(ctx, username))
}

func exists(_ *entity.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.roles[u.RoleID]; !ok {
			return repository.ErrNotFound
		}
		if err := st.checkUnique(u); err != nil {
			return err
		}
		st.users[u.ID] = stripUser(u)
		return nil
	})
}

func (r *userRepo) List(_ context.Context, page repository.Page) ([]*entity.User, int, error) {
	var (
		out   []*entity.User
		total int
	)
	err := r.s.view(func(st *state) error {
		ids := sortedKeys(st.users)
		total = len(ids)
		for _, id := range paginate(ids, page) {
			u, _ := st.loadUser(id)
			out = append(out, u)
		}
		return nil
	})
	return out, total, err
}
