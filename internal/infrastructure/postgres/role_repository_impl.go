package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type RoleRepository struct {
	db DBTX
}

const roleColumns = `id, name, permissions, is_default`

func scanRole(row pgx.Row) (*entity.Role, error) {
	var (
		r     entity.Role
		perms int32
	)
	if err := row.Scan(&r.ID, &r.Name, &perms, &r.IsDefault); err != nil {
		return nil, mapErr(err)
	}
	r.Permissions = entity.Permission(perms)
	return &r, nil
}

func (r *RoleRepository) Upsert(ctx context.Context, seed entity.RoleSeed) (*entity.Role, error) {
	return scanRole(r.db.QueryRow(ctx, `
		INSERT INTO roles (name, permissions, is_default)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET permissions = EXCLUDED.permissions, is_default = EXCLUDED.is_default
		RETURNING `+roleColumns,
		seed.Name, int32(seed.Permissions), seed.IsDefault))
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	return scanRole(r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	return scanRole(r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
}

func (r *RoleRepository) GetByPermissions(ctx context.Context, perms entity.Permission) (*entity.Role, error) {
	return scanRole(r.db.QueryRow(ctx, `
		SELECT `+roleColumns+` FROM roles WHERE permissions = $1 ORDER BY id LIMIT 1`, int32(perms)))
}

func (r *RoleRepository) GetDefault(ctx context.Context) (*entity.Role, error) {
	return scanRole(r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE is_default`))
}

func (r *RoleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*entity.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
