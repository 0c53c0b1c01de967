package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

func seed(t *testing.T, s *Store) *entity.Role {
	t.Helper()
	role, err := s.Roles().Upsert(context.Background(), entity.RoleSeed{Name: entity.RoleUser, Permissions: entity.PermFollow, IsDefault: true})
	require.NoError(t, err)
	return role
}

func addUser(t *testing.T, s *Store, role *entity.Role, email, username string) *entity.User {
	t.Helper()
	u := &entity.User{Username: username, RoleID: role.ID}
	u.SetEmail(email)
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestRoles_UpsertByName(t *testing.T) {
	ctx := context.Background()
	s := New()
	first := seed(t, s)

	again, err := s.Roles().Upsert(ctx, entity.RoleSeed{Name: entity.RoleUser, Permissions: entity.PermFollow | entity.PermComment, IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	roles, err := s.Roles().List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, entity.PermFollow|entity.PermComment, roles[0].Permissions)

	_, err = s.Roles().Upsert(ctx, entity.RoleSeed{Name: "Other", IsDefault: true})
	assert.ErrorIs(t, err, repository.ErrConflict, "only one default role")

	def, err := s.Roles().GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)
}

func TestUsers_UniqueAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)
	u := addUser(t, s, role, "John@Example.com", "john")

	got, err := s.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Role)
	assert.Equal(t, entity.RoleUser, got.Role.Name)

	dup := &entity.User{Username: "other", RoleID: role.ID}
	dup.SetEmail("john@example.com")
	assert.ErrorIs(t, s.Users().Create(ctx, dup), repository.ErrConflict)

	ok, err := s.Users().ExistsByUsername(ctx, "john")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Users().ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Users().GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_ReturnedValuesAreDetached(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := addUser(t, s, seed(t, s), "a@x.com", "a")

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		u := &entity.User{Username: "a", RoleID: role.ID}
		u.SetEmail("a@x.com")
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		// visible inside the transaction
		if _, err := tx.Users().GetByUsername(ctx, "a"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().GetByUsername(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTx_Commit(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)

	require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
		u := &entity.User{Username: "a", RoleID: role.ID}
		u.SetEmail("a@x.com")
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		return tx.Follows().Add(ctx, &entity.Follow{FollowerID: u.ID, FollowedID: u.ID, Timestamp: time.Now()})
	}))

	u, err := s.Users().GetByUsername(ctx, "a")
	require.NoError(t, err)
	ok, err := s.Follows().Exists(ctx, u.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithinTx_NestedRollsBackInnerOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)

	require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
		a := &entity.User{Username: "a", RoleID: role.ID}
		a.SetEmail("a@x.com")
		if err := tx.Users().Create(ctx, a); err != nil {
			return err
		}
		_ = tx.WithinTx(ctx, func(inner repository.Store) error {
			b := &entity.User{Username: "b", RoleID: role.ID}
			b.SetEmail("b@x.com")
			_ = inner.Users().Create(ctx, b)
			return errors.New("inner")
		})
		return nil
	}))

	_, err := s.Users().GetByUsername(ctx, "a")
	assert.NoError(t, err)
	_, err = s.Users().GetByUsername(ctx, "b")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFollows_IdempotentAndCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)
	a := addUser(t, s, role, "a@x.com", "a")
	b := addUser(t, s, role, "b@x.com", "b")
	now := time.Now()

	added, err := s.Follows().BackfillSelf(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)
	added, err = s.Follows().BackfillSelf(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, added)

	f := &entity.Follow{FollowerID: a.ID, FollowedID: b.ID, Timestamp: now.Add(time.Second)}
	require.NoError(t, s.Follows().Add(ctx, f))
	require.NoError(t, s.Follows().Add(ctx, f))

	followers, following, err := s.Follows().Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, followers)
	assert.Equal(t, 0, following)

	entries, total, err := s.Follows().Followers(ctx, b.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, total, "self edge is listed")
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].User.ID, "newest edge first")

	require.NoError(t, s.Follows().Remove(ctx, a.ID, b.ID))
	require.NoError(t, s.Follows().Remove(ctx, a.ID, b.ID))
	ok, err := s.Follows().Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Follows().Add(ctx, &entity.Follow{FollowerID: a.ID, FollowedID: 99}), repository.ErrNotFound)
}

func TestPosts_FollowedAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	role := seed(t, s)
	a := addUser(t, s, role, "a@x.com", "a")
	b := addUser(t, s, role, "b@x.com", "b")
	c := addUser(t, s, role, "c@x.com", "c")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Follows().BackfillSelf(ctx, base)
	require.NoError(t, err)
	require.NoError(t, s.Follows().Add(ctx, &entity.Follow{FollowerID: a.ID, FollowedID: b.ID, Timestamp: base}))

	for i, author := range []*entity.User{a, b, c, a} {
		require.NoError(t, s.Posts().Create(ctx, entity.NewPost(author.ID, "post", base.Add(time.Duration(i)*time.Minute))))
	}

	feed, total, err := s.Posts().ListFollowed(ctx, a.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, p := range feed {
		assert.NotEqual(t, c.ID, p.AuthorID)
	}
	assert.Equal(t, int64(4), feed[0].ID, "newest first")
	assert.Equal(t, "a", feed[0].Author.Username)

	all, total, err := s.Posts().List(ctx, repository.NewPage(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].ID)

	mine, total, err := s.Posts().ListByAuthor(ctx, a.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	none, _, err := s.Posts().List(ctx, repository.NewPage(9, 10))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestComments_OrderAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := addUser(t, s, seed(t, s), "a@x.com", "a")
	base := time.Now()
	post := entity.NewPost(a.ID, "post", base)
	require.NoError(t, s.Posts().Create(ctx, post))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Comments().Create(ctx, entity.NewComment(a.ID, post.ID, "c", base.Add(time.Duration(i)*time.Second))))
	}
	assert.ErrorIs(t, s.Comments().Create(ctx, entity.NewComment(a.ID, 42, "c", base)), repository.ErrNotFound)

	byPost, total, err := s.Comments().ListByPost(ctx, post.ID, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, int64(1), byPost[0].ID, "oldest first")

	recent, _, err := s.Comments().List(ctx, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), recent[0].ID, "newest first")

	c := recent[0]
	c.Disabled = true
	require.NoError(t, s.Comments().Update(ctx, c))
	got, err := s.Comments().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Disabled)

	loaded, err := s.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.CommentCount)
}
