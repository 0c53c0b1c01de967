package memory

import (
	"context"
	"sort"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type roleRepo struct{ s *Store }

func (r *roleRepo) Upsert(_ context.Context, seed entity.RoleSeed) (*entity.Role, error) {
	var out entity.Role
	err := r.s.update(func(st *state) error {
		var existing *entity.Role
		for _, role := range st.roles {
			if role.Name == seed.Name {
				role := role
				existing = &role
				continue
			}
			if seed.IsDefault && role.IsDefault {
				return repository.ErrConflict
			}
		}
		if existing == nil {
			st.roleSeq++
			existing = &entity.Role{ID: st.roleSeq, Name: seed.Name}
		}
		existing.Apply(seed)
		st.roles[existing.ID] = *existing
		out = *existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *roleRepo) find(match func(entity.Role) bool) (*entity.Role, error) {
	var out *entity.Role
	err := r.s.view(func(st *state) error {
		for _, id := range sortedKeys(st.roles) {
			if role := st.roles[id]; match(role) {
				out = &role
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *roleRepo) GetByID(_ context.Context, id int64) (*entity.Role, error) {
	return r.find(func(role entity.Role) bool { return role.ID == id })
}

func (r *roleRepo) GetByName(_ context.Context, name string) (*entity.Role, error) {
	return r.find(func(role entity.Role) bool { return role.Name == name })
}

func (r *roleRepo) GetByPermissions(_ context.Context, perms entity.Permission) (*entity.Role, error) {
	return r.find(func(role entity.Role) bool { return role.Permissions == perms })
}

func (r *roleRepo) GetDefault(_ context.Context) (*entity.Role, error) {
	return r.find(func(role entity.Role) bool { return role.IsDefault })
}

func (r *roleRepo) List(_ context.Context) ([]*entity.Role, error) {
	var out []*entity.Role
	err := r.s.view(func(st *state) error {
		for _, id := range sortedKeys(st.roles) {
			role := st.roles[id]
			out = append(out, &role)
		}
		return nil
	})
	return out, err
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
