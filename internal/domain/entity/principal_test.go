package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_AnonymousNeverAllowed(t *testing.T) {
	for _, p := range []Principal{Anonymous(), {}, Authenticated(nil)} {
		assert.False(t, p.IsAuthenticated())
		for _, perm := range allPerms {
			assert.False(t, p.Can(perm))
		}
		assert.False(t, p.IsAdministrator())
		u, ok := p.User()
		assert.Nil(t, u)
		assert.False(t, ok)
	}
}

func TestPrincipal_Authenticated(t *testing.T) {
	admin := &User{ID: 1, Role: &Role{Permissions: PermAll}}
	p := Authenticated(admin)
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, KindAuthenticated, p.Kind())
	assert.True(t, p.IsAdministrator())
	u, ok := p.User()
	assert.True(t, ok)
	assert.Same(t, admin, u)

	member := Authenticated(&User{ID: 2, Role: &Role{Permissions: PermFollow | PermComment | PermWriteArticles}})
	assert.True(t, member.Can(PermWriteArticles))
	assert.False(t, member.Can(PermModerateComments))
	assert.False(t, member.IsAdministrator())
}
