package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

// SeedRoles upserts the fixed role table by name in one transaction. It is
// safe to run on every start.
func SeedRoles(ctx context.Context, store repository.Store) ([]*entity.Role, error) {
	seeds := entity.DefaultRoles()
	// clear the old default before setting the new one
	sort.SliceStable(seeds, func(i, j int) bool { return !seeds[i].IsDefault && seeds[j].IsDefault })

	var roles []*entity.Role
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		for _, seed := range seeds {
			r, err := tx.Roles().Upsert(ctx, seed)
			if err != nil {
				return fmt.Errorf("upsert role %s: %w", seed.Name, err)
			}
			roles = append(roles, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// DeployReport summarises what Deploy changed.
type DeployReport struct {
	Roles            []*entity.Role
	SelfFollowsAdded int64
}

// Deploy seeds roles and makes sure every user follows themselves.
func Deploy(ctx context.Context, store repository.Store, now time.Time, logger *logrus.Logger) (DeployReport, error) {
	roles, err := SeedRoles(ctx, store)
	if err != nil {
		return DeployReport{}, err
	}
	added, err := store.Follows().BackfillSelf(ctx, now)
	if err != nil {
		return DeployReport{}, fmt.Errorf("backfill self follows: %w", err)
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{"roles": len(roles), "self_follows_added": added}).Info("deploy finished")
	}
	return DeployReport{Roles: roles, SelfFollowsAdded: added}, nil
}
