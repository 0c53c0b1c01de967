package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/infrastructure/memory"
	"github.com/ChaoPei/flasky/internal/testutil"
	"github.com/ChaoPei/flasky/pkg/helpers"
)

func init() { entity.PasswordCost = bcrypt.MinCost }

type fixture struct {
	store   *memory.Store
	clock   *testutil.StubClock
	mailer  *testutil.RecordingMailer
	indexer *testutil.MemoryIndexer

	auth    *AuthService
	users   *UserService
	follows *FollowService
	posts   *PostService
}

const adminEmail = "admin@example.com"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   testutil.NewStore(t),
		clock:   testutil.FixedClock(),
		mailer:  &testutil.RecordingMailer{},
		indexer: testutil.NewMemoryIndexer(),
	}
	tokens := helpers.NewActionTokens("test secret")
	tokens.Now = f.clock.Now
	jwt := helpers.NewJWTManager("a", "r", time.Hour, 24*time.Hour)
	jwt.Now = f.clock.Now

	f.auth = &AuthService{
		Store:   f.store,
		Tokens:  tokens,
		JWT:     jwt,
		Mailer:  f.mailer,
		Indexer: f.indexer,
		Settings: AccountSettings{
			AdminEmail:     adminEmail,
			ConfirmTTL:     time.Hour,
			ResetTTL:       time.Hour,
			ChangeEmailTTL: time.Hour,
			ConfirmURL:     "http://app.test/confirm",
			ResetURL:       "http://app.test/reset",
			ChangeEmailURL: "http://app.test/change-email",
		},
		Now: f.clock.Now,
	}
	f.follows = &FollowService{Store: f.store, Now: f.clock.Now, PerPage: 50}
	f.users = &UserService{Store: f.store, Follows: f.follows, Indexer: f.indexer, Now: f.clock.Now, PostsPerPage: 20}
	f.posts = &PostService{Store: f.store, Indexer: f.indexer, Now: f.clock.Now, PostsPerPage: 20, CommentsPerPage: 30}
	return f
}

func (f *fixture) register(t *testing.T, email, username string) *entity.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Username: username, Password: "cat"})
	require.NoError(t, err)
	return u
}

// principal reloads u so the role and flags are current.
func (f *fixture) principal(t *testing.T, u *entity.User) entity.Principal {
	t.Helper()
	fresh, err := f.store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	return entity.Authenticated(fresh)
}

func (f *fixture) withRole(t *testing.T, u *entity.User, roleName string) entity.Principal {
	t.Helper()
	ctx := context.Background()
	role, err := f.store.Roles().GetByName(ctx, roleName)
	require.NoError(t, err)
	fresh, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	fresh.SetRole(role)
	require.NoError(t, f.store.Users().Update(ctx, fresh))
	return entity.Authenticated(fresh)
}
