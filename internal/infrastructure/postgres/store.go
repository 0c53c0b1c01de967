package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChaoPei/flasky/internal/domain/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the pgx implementation of repository.Store.
type Store struct {
	db DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) Roles() repository.RoleRepository       { return &RoleRepository{db: s.db} }
func (s *Store) Users() repository.UserRepository       { return &UserRepository{db: s.db} }
func (s *Store) Follows() repository.FollowRepository   { return &FollowRepository{db: s.db} }
func (s *Store) Posts() repository.PostRepository       { return &PostRepository{db: s.db} }
func (s *Store) Comments() repository.CommentRepository { return &CommentRepository{db: s.db} }

// WithinTx opens a transaction, or a savepoint when s is already inside one.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

const uniqueViolation = "23505"

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func count(ctx context.Context, db DBTX, sql string, args ...any) (int, error) {
	var n int
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

var _ repository.Store = (*Store)(nil)
