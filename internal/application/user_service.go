package application

import (
	"context"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

// UserService covers profiles: reading, self editing, admin editing,
// avatars and search.
type UserService struct {
	Store   repository.Store
	Follows *FollowService
	Redis   *redis.Client
	Avatars AvatarStore
	Indexer Indexer
	Logger  *logrus.Logger
	Now     Clock

	PostsPerPage int
}

// Profile is a user page as seen by a viewer.
type Profile struct {
	User           *entity.User
	FollowersCount int
	FollowingCount int
	Posts          []*entity.Post
	PostsTotal     int

	// relation to the viewer; both false for anonymous viewers
	IsFollowing  bool
	IsFollowedBy bool
}

type ProfileInput struct {
	Name     string
	Location string
	AboutMe  string
}

type AdminProfileInput struct {
	Email     string
	Username  string
	Confirmed bool
	RoleID    int64
	Name      string
	Location  string
	AboutMe   string
}

func (s *UserService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*entity.User, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Ping stamps last_seen for an authenticated request.
func (s *UserService) Ping(ctx context.Context, u *entity.User) error {
	u.Ping(s.Now.now())
	return s.Store.Users().Update(ctx, u)
}

// Profile loads username's page: counts without the self edge, one page of
// posts and the viewer's relation to the user.
func (s *UserService) Profile(ctx context.Context, viewer entity.Principal, username string, page int) (*Profile, error) {
	u, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrUserNotFound
	}
	followers, following, err := s.Store.Follows().Counts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	posts, total, err := s.Store.Posts().ListByAuthor(ctx, u.ID, repository.NewPage(page, s.PostsPerPage))
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u, FollowersCount: followers, FollowingCount: following, Posts: posts, PostsTotal: total}
	if me, ok := viewer.User(); ok {
		if p.IsFollowing, err = s.Follows.IsFollowing(ctx, me.ID, u.ID); err != nil {
			return nil, err
		}
		if p.IsFollowedBy, err = s.Follows.IsFollowedBy(ctx, me.ID, u.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*entity.User, error) {
	var user *entity.User
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		u.Name = in.Name
		u.Location = in.Location
		u.AboutMe = in.AboutMe
		user = u
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.refreshSession(ctx, user)
	s.index(ctx, user)
	return user, nil
}

// AdminUpdateProfile edits any account. Only administrators may call it.
func (s *UserService) AdminUpdateProfile(ctx context.Context, p entity.Principal, userID int64, in AdminProfileInput) (*entity.User, error) {
	if !p.IsAdministrator() {
		return nil, ErrForbidden
	}
	var user *entity.User
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		email := entity.NormalizeEmail(in.Email)
		verr := &ValidationError{}
		if email != u.Email {
			taken, err := tx.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return err
			}
			if taken {
				verr.Add("email", "Email already registered.")
			}
		}
		if in.Username != u.Username {
			taken, err := tx.Users().ExistsByUsername(ctx, in.Username)
			if err != nil {
				return err
			}
			if taken {
				verr.Add("username", "Username already in use.")
			}
		}
		role, err := tx.Roles().GetByID(ctx, in.RoleID)
		if err != nil {
			verr.Add("role_id", "Unknown role.")
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		u.SetEmail(email)
		u.Username = in.Username
		u.Confirmed = in.Confirmed
		u.SetRole(role)
		u.Name = in.Name
		u.Location = in.Location
		u.AboutMe = in.AboutMe
		if err := tx.Users().Update(ctx, u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fieldError("email", "Email or username already in use.")
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log().WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role.Name}).Info("profile updated by administrator")
	s.index(ctx, user)
	return user, nil
}

// UploadAvatar stores the image and points the profile at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", ErrNotConfigured
	}
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", ErrUserNotFound
	}
	url, err := s.Avatars.Upload(ctx, userID, filename, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Store.Users().Update(ctx, u); err != nil {
		return "", err
	}
	s.refreshSession(ctx, u)
	s.index(ctx, u)
	return url, nil
}

func (s *UserService) Roles(ctx context.Context) ([]*entity.Role, error) {
	return s.Store.Roles().List(ctx)
}

// SearchUsers performs a full text search over indexed profiles.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Indexer == nil {
		return []map[string]any{}, nil
	}
	return s.Indexer.SearchUsers(ctx, q, size)
}

// refreshSession copies display fields into the Redis session, keeping its TTL.
func (s *UserService) refreshSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := SessionKey(u.ID)
	if n, err := s.Redis.Exists(ctx, key).Result(); err != nil || n == 0 {
		return
	}
	if err := s.Redis.HSet(ctx, key, map[string]any{
		"email":      u.Email,
		"username":   u.Username,
		"avatar_url": u.Avatar(256),
	}).Err(); err != nil {
		s.log().WithError(err).WithField("key", key).Warn("redis session update failed")
	}
}

func (s *UserService) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexUser(ctx, u); err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}
