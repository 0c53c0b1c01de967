// Package memory is an in-process repository.Store. Transactions work on a
// copy of the data set and swap it in on commit, so a failed unit of work
// leaves nothing behind.
package memory

import (
	"context"
	"sync"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type followKey struct{ follower, followed int64 }

type state struct {
	roles    map[int64]entity.Role
	users    map[int64]entity.User
	follows  map[followKey]entity.Follow
	posts    map[int64]entity.Post
	comments map[int64]entity.Comment

	roleSeq, userSeq, postSeq, commentSeq int64
}

func newState() *state {
	return &state{
		roles:    map[int64]entity.Role{},
		users:    map[int64]entity.User{},
		follows:  map[followKey]entity.Follow{},
		posts:    map[int64]entity.Post{},
		comments: map[int64]entity.Comment{},
	}
}

func (s *state) clone() *state {
	c := &state{
		roles:      make(map[int64]entity.Role, len(s.roles)),
		users:      make(map[int64]entity.User, len(s.users)),
		follows:    make(map[followKey]entity.Follow, len(s.follows)),
		posts:      make(map[int64]entity.Post, len(s.posts)),
		comments:   make(map[int64]entity.Comment, len(s.comments)),
		roleSeq:    s.roleSeq,
		userSeq:    s.userSeq,
		postSeq:    s.postSeq,
		commentSeq: s.commentSeq,
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.follows {
		c.follows[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	return c
}

type db struct {
	mu sync.RWMutex
	st *state
}

// Store implements repository.Store on maps guarded by a single lock.
type Store struct {
	db *db
	tx *state // set inside WithinTx; the lock is held by the transaction
}

func New() *Store {
	return &Store{db: &db{st: newState()}}
}

func (s *Store) Roles() repository.RoleRepository       { return &roleRepo{s} }
func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Follows() repository.FollowRepository   { return &followRepo{s} }
func (s *Store) Posts() repository.PostRepository       { return &postRepo{s} }
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		// nested: behave like a savepoint
		snap := s.tx.clone()
		if err := fn(s); err != nil {
			*s.tx = *snap
			return err
		}
		return nil
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	work := s.db.st.clone()
	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.st = work
	return nil
}

func (s *Store) view(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.st)
}

// update applies fn atomically outside a transaction as well.
func (s *Store) update(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	work := s.db.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.db.st = work
	return nil
}

func paginate[T any](items []T, page repository.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ repository.Store = (*Store)(nil)
