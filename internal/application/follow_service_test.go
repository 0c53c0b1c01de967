package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

func TestFollow_UnfollowIsInverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")
	b := f.register(t, "b@x.com", "b")
	pa := f.principal(t, a)

	require.NoError(t, f.follows.Follow(ctx, pa, "b"))
	require.NoError(t, f.follows.Follow(ctx, pa, "b"), "following twice is a no-op")

	ok, err := f.follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.follows.IsFollowedBy(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, total, err := f.follows.Followers(ctx, "b", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total, "b itself and a")
	assert.Len(t, followers, 2)

	require.NoError(t, f.follows.Unfollow(ctx, pa, "b"))
	require.NoError(t, f.follows.Unfollow(ctx, pa, "b"), "unfollowing twice is a no-op")
	ok, err = f.follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollow_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")
	b := f.register(t, "b@x.com", "b")
	c := f.register(t, "c@x.com", "c")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.follows.Follow(ctx, f.principal(t, b), "a"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.follows.Follow(ctx, f.principal(t, c), "a"))

	entries, _, err := f.follows.Followers(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, c.ID, entries[0].User.ID)
	assert.Equal(t, b.ID, entries[1].User.ID)
	assert.Equal(t, a.ID, entries[2].User.ID)
}

func TestFollow_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")

	assert.ErrorIs(t, f.follows.Follow(ctx, entity.Anonymous(), "a"), ErrUnauthenticated)
	assert.ErrorIs(t, f.follows.Follow(ctx, f.principal(t, a), "ghost"), ErrUserNotFound)

	noPerms := f.principal(t, a)
	me, _ := noPerms.User()
	me.Role = &entity.Role{Name: "Muted", Permissions: entity.PermComment}
	assert.ErrorIs(t, f.follows.Follow(ctx, noPerms, "a"), ErrForbidden)

	_, _, err := f.follows.Following(ctx, "ghost", 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollow_UnfollowSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")

	require.NoError(t, f.follows.Unfollow(ctx, f.principal(t, a), "a"))
	ok, err := f.follows.IsFollowing(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
