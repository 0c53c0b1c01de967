package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/config"
	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
	"github.com/ChaoPei/flasky/pkg/helpers"
)

// AccountSettings are the knobs of the account workflows.
type AccountSettings struct {
	AdminEmail     string
	ConfirmTTL     time.Duration
	ResetTTL       time.Duration
	ChangeEmailTTL time.Duration

	// Front-end pages that receive ?token=...
	ConfirmURL     string
	ResetURL       string
	ChangeEmailURL string
}

func SettingsFromConfig(cfg *config.Config) AccountSettings {
	return AccountSettings{
		AdminEmail:     cfg.AdminEmail,
		ConfirmTTL:     cfg.ConfirmTokenTTL,
		ResetTTL:       cfg.ResetTokenTTL,
		ChangeEmailTTL: cfg.ChangeEmailTokenTTL,
		ConfirmURL:     cfg.ConfirmEmailURL,
		ResetURL:       cfg.ResetPasswordURL,
		ChangeEmailURL: cfg.ChangeEmailURL,
	}
}

// AuthService owns registration, login sessions and the signed token
// workflows: confirm account, reset password and change email.
type AuthService struct {
	Store    repository.Store
	Tokens   *helpers.ActionTokens
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	Mailer   Mailer
	Indexer  Indexer
	Logger   *logrus.Logger
	Settings AccountSettings
	Now      Clock
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

func SessionKey(userID int64) string {
	return fmt.Sprintf("user:session:%d", userID)
}

func (s *AuthService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// Register creates the account, its role assignment and the self follow in
// one unit of work, then mails the confirmation link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	now := s.Now.now()
	email := entity.NormalizeEmail(in.Email)

	var user *entity.User
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		verr := &ValidationError{}
		if taken, err := tx.Users().ExistsByEmail(ctx, email); err != nil {
			return err
		} else if taken {
			verr.Add("email", "Email already registered.")
		}
		if taken, err := tx.Users().ExistsByUsername(ctx, in.Username); err != nil {
			return err
		} else if taken {
			verr.Add("username", "Username already in use.")
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		role, err := s.roleFor(ctx, tx, email)
		if err != nil {
			return err
		}
		u, err := entity.NewUser(email, in.Username, in.Password, role, now)
		if err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fieldError("email", "Email already registered.")
			}
			return err
		}
		if err := tx.Follows().Add(ctx, &entity.Follow{FollowerID: u.ID, FollowedID: u.ID, Timestamp: now}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log().WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role.Name}).Info("user registered")
	s.sendConfirmation(ctx, user)
	if admin := s.Settings.AdminEmail; admin != "" {
		s.mail(ctx, admin, "New User", MailNewUser, map[string]any{
			"Username": user.Username,
			"Email":    user.Email,
		})
	}
	if s.Indexer != nil {
		_ = s.Indexer.IndexUser(ctx, user)
	}
	return user, nil
}

// roleFor returns the administrator role for the configured admin email and
// the default role for everyone else.
func (s *AuthService) roleFor(ctx context.Context, tx repository.Store, email string) (*entity.Role, error) {
	var (
		role *entity.Role
		err  error
	)
	if admin := s.Settings.AdminEmail; admin != "" && entity.NormalizeEmail(admin) == email {
		role, err = tx.Roles().GetByPermissions(ctx, entity.PermAll)
	} else {
		role, err = tx.Roles().GetDefault(ctx)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoleNotFound
	}
	return role, err
}

func (s *AuthService) mail(ctx context.Context, to, subject, template string, data map[string]any) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, to, subject, template, data); err != nil {
		s.log().WithError(err).WithFields(logrus.Fields{"template": template}).Warn("mail dispatch failed")
	}
}

func link(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func (s *AuthService) sendConfirmation(ctx context.Context, u *entity.User) {
	tok, err := s.Tokens.Generate(helpers.PurposeConfirm, u.ID, "", s.Settings.ConfirmTTL)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("generate confirmation token failed")
		return
	}
	s.mail(ctx, u.Email, "Confirm Your Account", MailConfirm, map[string]any{
		"Username":  u.Username,
		"Link":      link(s.Settings.ConfirmURL, tok),
		"Token":     tok,
		"ExpiresIn": s.Settings.ConfirmTTL.String(),
	})
}

// ResendConfirmation mails a fresh confirmation link. Confirmed accounts get
// nothing and sent is false.
func (s *AuthService) ResendConfirmation(ctx context.Context, p entity.Principal) (sent bool, err error) {
	cur, ok := p.User()
	if !ok {
		return false, ErrUnauthenticated
	}
	u, err := s.Store.Users().GetByID(ctx, cur.ID)
	if err != nil {
		return false, ErrUserNotFound
	}
	if u.Confirmed {
		return false, nil
	}
	s.sendConfirmation(ctx, u)
	return true, nil
}

// Confirm marks the account confirmed when token was issued for it. An
// already confirmed account succeeds without looking at the token.
func (s *AuthService) Confirm(ctx context.Context, userID int64, token string) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		if u.Confirmed {
			return nil
		}
		claims, ok := s.Tokens.Verify(token, helpers.PurposeConfirm)
		if !ok || claims.UserID != u.ID {
			return ErrInvalidToken
		}
		u.Confirmed = true
		return tx.Users().Update(ctx, u)
	})
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.pair(u.ID, sid)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("generate session tokens failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"username":   u.Username,
			"sid":        sid,
			"created_at": s.Now.now().Format(time.RFC3339Nano),
		}
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.log().WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, nil
}

func (s *AuthService) pair(userID int64, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u.Ping(s.Now.now())
	if err := s.Store.Users().Update(ctx, u); err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Warn("update last_seen failed")
	}
	return u, pair, nil
}

// Refresh validates the refresh token against the stored session and rotates both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, int64, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	u, err := s.Store.Users().GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, 0, ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	pair, err := s.pair(u.ID, sid)
	if err != nil {
		return TokenPair{}, 0, err
	}
	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": s.Now.now().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		_, _ = pipe.Exec(ctx)
	}
	return pair, u.ID, nil
}

// Logout drops the server side session.
func (s *AuthService) Logout(ctx context.Context, userID int64) {
	if s.Redis == nil || userID == 0 {
		return
	}
	if err := s.Redis.Del(ctx, SessionKey(userID)).Err(); err != nil {
		s.log().WithError(err).WithField("user_id", userID).Warn("drop session failed")
	}
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		if !u.VerifyPassword(oldPassword) {
			return fieldError("old_password", "Invalid password.")
		}
		if err := u.SetPassword(newPassword); err != nil {
			return err
		}
		return tx.Users().Update(ctx, u)
	})
}

// RequestPasswordReset mails a reset link when email belongs to an account.
// The outcome is the same either way, so callers learn nothing about which
// addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log().WithError(err).Warn("reset lookup failed")
		}
		return nil
	}
	tok, err := s.Tokens.GenerateStamped(helpers.PurposeReset, u.ID, helpers.PasswordStamp(u.PasswordHash), s.Settings.ResetTTL)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("generate reset token failed")
		return nil
	}
	s.mail(ctx, u.Email, "Reset Your Password", MailResetPassword, map[string]any{
		"Username":  u.Username,
		"Link":      link(s.Settings.ResetURL, tok),
		"Token":     tok,
		"ExpiresIn": s.Settings.ResetTTL.String(),
	})
	return nil
}

// ResetPassword replaces the password of the account owning email. The
// token must have been issued to that same account, and stops working once
// the password it was issued against has changed.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return ErrInvalidToken
		}
		claims, ok := s.Tokens.Verify(token, helpers.PurposeReset)
		if !ok || claims.UserID != u.ID || claims.Stamp != helpers.PasswordStamp(u.PasswordHash) {
			return ErrInvalidToken
		}
		if err := u.SetPassword(newPassword); err != nil {
			return err
		}
		return tx.Users().Update(ctx, u)
	})
}

// RequestEmailChange checks the password and mails a confirmation link to
// the new address.
func (s *AuthService) RequestEmailChange(ctx context.Context, userID int64, newEmail, password string) error {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !u.VerifyPassword(password) {
		return fieldError("password", "Invalid password.")
	}
	newEmail = entity.NormalizeEmail(newEmail)
	taken, err := s.Store.Users().ExistsByEmail(ctx, newEmail)
	if err != nil {
		return err
	}
	if taken {
		return fieldError("email", "Email already registered.")
	}

	tok, err := s.Tokens.Generate(helpers.PurposeChangeEmail, u.ID, newEmail, s.Settings.ChangeEmailTTL)
	if err != nil {
		return err
	}
	s.mail(ctx, newEmail, "Confirm your email address", MailChangeEmail, map[string]any{
		"Username":  u.Username,
		"Link":      link(s.Settings.ChangeEmailURL, tok),
		"Token":     tok,
		"ExpiresIn": s.Settings.ChangeEmailTTL.String(),
	})
	return nil
}

// ChangeEmail applies a pending address change. The new address is checked
// again inside the transaction; if someone registered it meanwhile the
// change is rejected and nothing is written.
func (s *AuthService) ChangeEmail(ctx context.Context, userID int64, token string) (*entity.User, error) {
	var user *entity.User
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		claims, ok := s.Tokens.Verify(token, helpers.PurposeChangeEmail)
		if !ok || claims.UserID != u.ID || claims.NewEmail == "" {
			return ErrInvalidToken
		}
		taken, err := tx.Users().ExistsByEmail(ctx, claims.NewEmail)
		if err != nil {
			return err
		}
		if taken {
			return ErrInvalidToken
		}
		u.SetEmail(claims.NewEmail)
		if err := tx.Users().Update(ctx, u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrInvalidToken
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Indexer != nil {
		_ = s.Indexer.IndexUser(ctx, user)
	}
	return user, nil
}
