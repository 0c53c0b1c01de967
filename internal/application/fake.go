package application

import (
	"context"
	"errors"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

// FakeDataPassword is the password every generated account gets.
const FakeDataPassword = "password"

// Faker fills a development database with confirmed users and posts.
type Faker struct {
	Store  repository.Store
	Logger *logrus.Logger
	Now    Clock
	Gen    *gofakeit.Faker
}

func NewFaker(store repository.Store, seed uint64, logger *logrus.Logger) *Faker {
	return &Faker{Store: store, Logger: logger, Gen: gofakeit.New(seed)}
}

// Users creates up to count accounts with the default role. Collisions on
// email or username are skipped, so fewer may be created.
func (f *Faker) Users(ctx context.Context, count int) (int, error) {
	role, err := f.Store.Roles().GetDefault(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrRoleNotFound
		}
		return 0, err
	}
	now := f.Now.now()
	created := 0
	for i := 0; i < count; i++ {
		since := f.Gen.DateRange(now.AddDate(-1, 0, 0), now)
		u, err := entity.NewUser(f.Gen.Email(), f.Gen.Username(), FakeDataPassword, role, since)
		if err != nil {
			return created, err
		}
		u.Confirmed = true
		u.Name = f.Gen.Name()
		u.Location = f.Gen.City()
		u.AboutMe = f.Gen.Sentence(12)

		err = f.Store.WithinTx(ctx, func(tx repository.Store) error {
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
			return tx.Follows().Add(ctx, &entity.Follow{FollowerID: u.ID, FollowedID: u.ID, Timestamp: since})
		})
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	f.log().WithField("created", created).Info("fake users generated")
	return created, nil
}

// Posts writes count posts by random existing users, dated within the last year.
func (f *Faker) Posts(ctx context.Context, count int) (int, error) {
	_, total, err := f.Store.Users().List(ctx, repository.NewPage(1, 1))
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	now := f.Now.now()
	for i := 0; i < count; i++ {
		picked, _, err := f.Store.Users().List(ctx, repository.NewPage(f.Gen.IntRange(1, total), 1))
		if err != nil {
			return i, err
		}
		if len(picked) == 0 {
			continue
		}
		when := f.Gen.DateRange(now.AddDate(-1, 0, 0), now)
		body := f.Gen.Paragraph(f.Gen.IntRange(1, 3), 4, 10, "\n\n")
		if err := f.Store.Posts().Create(ctx, entity.NewPost(picked[0].ID, body, when.Truncate(time.Second))); err != nil {
			return i, err
		}
	}
	f.log().WithField("created", count).Info("fake posts generated")
	return count, nil
}

func (f *Faker) log() *logrus.Logger {
	if f.Logger == nil {
		return logrus.StandardLogger()
	}
	return f.Logger
}
