package repository

import (
	"context"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

type RoleRepository interface {
	// Upsert creates the role or updates permissions and default flag by name.
	Upsert(ctx context.Context, seed entity.RoleSeed) (*entity.Role, error)
	GetByID(ctx context.Context, id int64) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	GetByPermissions(ctx context.Context, perms entity.Permission) (*entity.Role, error)
	GetDefault(ctx context.Context) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
}
