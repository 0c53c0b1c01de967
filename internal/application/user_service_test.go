package application

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

type fakeAvatars struct{ got string }

func (f *fakeAvatars) Upload(_ context.Context, userID int64, filename, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.got = string(b)
	return "https://cdn.test/avatars/" + filename, nil
}

func TestProfile_CountsExcludeSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")
	b := f.register(t, "b@x.com", "b")
	require.NoError(t, f.follows.Follow(ctx, f.principal(t, b), "a"))
	_, err := f.posts.Create(ctx, f.principal(t, a), "hello")
	require.NoError(t, err)

	p, err := f.users.Profile(ctx, f.principal(t, b), "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.FollowersCount)
	assert.Equal(t, 0, p.FollowingCount)
	assert.Equal(t, 1, p.PostsTotal)
	assert.True(t, p.IsFollowing)
	assert.False(t, p.IsFollowedBy)

	anon, err := f.users.Profile(ctx, entity.Anonymous(), "a", 1)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)

	_, err = f.users.Profile(ctx, entity.Anonymous(), "ghost", 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfile_MutualFollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")
	b := f.register(t, "b@x.com", "b")
	pb := f.principal(t, b)

	require.NoError(t, f.follows.Follow(ctx, f.principal(t, a), "b"))
	p, err := f.users.Profile(ctx, pb, "a", 1)
	require.NoError(t, err)
	assert.False(t, p.IsFollowing)
	assert.True(t, p.IsFollowedBy)

	require.NoError(t, f.follows.Follow(ctx, pb, "a"))
	p, err = f.users.Profile(ctx, pb, "a", 1)
	require.NoError(t, err)
	assert.True(t, p.IsFollowing)
	assert.True(t, p.IsFollowedBy)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")

	u, err := f.users.UpdateProfile(ctx, a.ID, ProfileInput{Name: "Ann", Location: "Oslo", AboutMe: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)

	hits, err := f.users.SearchUsers(ctx, "oslo", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestAdminUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.register(t, "a@x.com", "a")
	f.register(t, "b@x.com", "b")
	admin := f.register(t, adminEmail, "root")
	mod, err := f.store.Roles().GetByName(ctx, entity.RoleModerator)
	require.NoError(t, err)

	in := AdminProfileInput{
		Email:     "Ann@X.com",
		Username:  "ann",
		Confirmed: true,
		RoleID:    mod.ID,
		Name:      "Ann",
		Location:  "Oslo",
		AboutMe:   "edited by admin",
	}
	_, err = f.users.AdminUpdateProfile(ctx, f.principal(t, target), target.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := f.users.AdminUpdateProfile(ctx, f.principal(t, admin), target.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.Equal(t, entity.GravatarHash("ann@x.com"), u.AvatarHash)
	assert.Equal(t, entity.RoleModerator, u.Role.Name)
	assert.True(t, u.Confirmed)

	stored, err := f.store.Users().GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited by admin", stored.AboutMe)
	assert.True(t, stored.Can(entity.PermModerateComments))

	adminAfter, err := f.store.Users().GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, adminAfter.AboutMe, "the administrator's own profile is untouched")

	in.Username = "b"
	in.RoleID = 999
	_, err = f.users.AdminUpdateProfile(ctx, f.principal(t, admin), target.ID, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "role_id")
}

func TestUploadAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")

	_, err := f.users.UploadAvatar(ctx, a.ID, strings.NewReader("png"), "me.png", "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)

	store := &fakeAvatars{}
	f.users.Avatars = store
	url, err := f.users.UploadAvatar(ctx, a.ID, strings.NewReader("png"), "me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "png", store.got)

	u, err := f.users.GetProfile(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, url, u.Avatar(64))
}
