package repository

import "context"

// Store groups the repositories behind one unit of work.
type Store interface {
	Roles() RoleRepository
	Users() UserRepository
	Follows() FollowRepository
	Posts() PostRepository
	Comments() CommentRepository

	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
