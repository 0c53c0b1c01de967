package repository

import (
	"context"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

// UserRepository loads users with their Role attached.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *entity.User) error
	List(ctx context.Context, page Page) ([]*entity.User, int, error)
}
