package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/infrastructure/memory"
)

func TestSeedRoles_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	first, err := SeedRoles(ctx, store)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := SeedRoles(ctx, store)
	require.NoError(t, err)
	roles, err := store.Roles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	ids := map[string]int64{}
	for _, r := range first {
		ids[r.Name] = r.ID
	}
	for _, r := range second {
		assert.Equal(t, ids[r.Name], r.ID)
	}

	def, err := store.Roles().GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, def.Name)
	admin, err := store.Roles().GetByPermissions(ctx, entity.PermAll)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdministrator, admin.Name)
}

func TestSeedRoles_RestoresEditedPermissions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := SeedRoles(ctx, store)
	require.NoError(t, err)

	_, err = store.Roles().Upsert(ctx, entity.RoleSeed{Name: entity.RoleModerator, Permissions: entity.PermFollow})
	require.NoError(t, err)

	_, err = SeedRoles(ctx, store)
	require.NoError(t, err)
	mod, err := store.Roles().GetByName(ctx, entity.RoleModerator)
	require.NoError(t, err)
	assert.True(t, mod.HasPermission(entity.PermModerateComments))
}

func TestDeploy_BackfillsSelfFollows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "a")
	b := f.register(t, "b@x.com", "b")
	require.NoError(t, f.store.Follows().Remove(ctx, a.ID, a.ID))
	require.NoError(t, f.store.Follows().Remove(ctx, b.ID, b.ID))

	report, err := Deploy(ctx, f.store, f.clock.Now(), nil)
	require.NoError(t, err)
	assert.Len(t, report.Roles, 3)
	assert.EqualValues(t, 2, report.SelfFollowsAdded)

	ok, err := f.store.Follows().Exists(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	report, err = Deploy(ctx, f.store, f.clock.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.SelfFollowsAdded)
}
