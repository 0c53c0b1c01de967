package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/infrastructure/memory"
)

// NewStore returns an in-memory store with the default roles in place.
func NewStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, seed := range entity.DefaultRoles() {
		_, err := s.Roles().Upsert(context.Background(), seed)
		require.NoError(t, err)
	}
	return s
}
