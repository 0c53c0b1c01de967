package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

const userSelect = `
	SELECT u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
	       u.name, u.location, u.about_me, u.avatar_hash, u.avatar_url,
	       u.member_since, u.last_seen,
	       r.id, r.name, r.permissions, r.is_default
	FROM users u
	JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u     entity.User
		r     entity.Role
		perms int32
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Confirmed, &u.RoleID,
		&u.Name, &u.Location, &u.AboutMe, &u.AvatarHash, &u.AvatarURL,
		&u.MemberSince, &u.LastSeen,
		&r.ID, &r.Name, &perms, &r.IsDefault); err != nil {
		return nil, mapErr(err)
	}
	r.Permissions = entity.Permission(perms)
	u.Role = &r
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]*entity.User, error) {
	defer rows.Close()
	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, confirmed, role_id,
		                   name, location, about_me, avatar_hash, avatar_url, member_since, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, u.Email, u.Username, u.PasswordHash, u.Confirmed, u.RoleID,
		u.Name, u.Location, u.AboutMe, u.AvatarHash, u.AvatarURL, u.MemberSince, u.LastSeen)
	return mapErr(row.Scan(&u.ID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.email = $1`, entity.NormalizeEmail(email)))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.username = $1`, username))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, entity.NormalizeEmail(email)).Scan(&ok)
	return ok, err
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&ok)
	return ok, err
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, confirmed = $4, role_id = $5,
		    name = $6, location = $7, about_me = $8, avatar_hash = $9, avatar_url = $10, last_seen = $11
		WHERE id = $12
	`, u.Email, u.Username, u.PasswordHash, u.Confirmed, u.RoleID,
		u.Name, u.Location, u.AboutMe, u.AvatarHash, u.AvatarURL, u.LastSeen, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, page repository.Page) ([]*entity.User, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM users`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.id LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	users, err := scanUsers(rows)
	return users, total, err
}

var _ repository.UserRepository = (*UserRepository)(nil)
