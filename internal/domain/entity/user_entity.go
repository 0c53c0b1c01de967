package entity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used by SetPassword. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

// User is the aggregate root for accounts.
//
// The password is never kept in clear text: SetPassword stores a bcrypt hash
// and VerifyPassword compares against it. There is no way to read it back.
// Email must be changed through SetEmail so the avatar hash follows it.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Confirmed    bool
	RoleID       int64
	Role         *Role

	Name     string
	Location string
	AboutMe  string

	AvatarHash string
	AvatarURL  string // uploaded avatar; empty means gravatar

	MemberSince time.Time
	LastSeen    time.Time
}

// NewUser builds an unconfirmed account with the given role. Email and
// password go through their setters.
func NewUser(email, username, password string, role *Role, now time.Time) (*User, error) {
	u := &User{
		Username:    username,
		MemberSince: now,
		LastSeen:    now,
	}
	u.SetEmail(email)
	u.SetRole(role)
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetEmail stores the normalised (trimmed, lowercased) address and
// recomputes the avatar hash.
func (u *User) SetEmail(email string) {
	u.Email = NormalizeEmail(email)
	u.AvatarHash = GravatarHash(u.Email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) SetRole(r *Role) {
	u.Role = r
	if r != nil {
		u.RoleID = r.ID
	}
}

func (u *User) SetPassword(plain string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(b)
	return nil
}

func (u *User) VerifyPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Can reports whether the user's role grants all bits of p.
func (u *User) Can(p Permission) bool {
	return u != nil && u.Role != nil && u.Role.HasPermission(p)
}

func (u *User) IsAdministrator() bool {
	return u.Can(PermAdminister)
}

// Ping refreshes LastSeen.
func (u *User) Ping(now time.Time) {
	u.LastSeen = now
}

// Avatar returns the uploaded avatar if any, else a gravatar URL of the given size.
func (u *User) Avatar(size int) string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return GravatarURL(u.AvatarHash, size)
}

// GravatarHash is the md5 of the trimmed, lowercased email.
func GravatarHash(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}

func GravatarURL(hash string, size int) string {
	if size <= 0 {
		size = 100
	}
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=identicon&r=g", hash, size)
}
