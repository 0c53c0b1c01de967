package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose tags what a signed action token authorises.
type TokenPurpose string

const (
	PurposeConfirm     TokenPurpose = "confirm"
	PurposeReset       TokenPurpose = "reset"
	PurposeChangeEmail TokenPurpose = "change_email"
)

// ActionClaims is the payload of an account action token.
type ActionClaims struct {
	Purpose  TokenPurpose `json:"purpose"`
	UserID   int64        `json:"uid"`
	NewEmail string       `json:"new_email,omitempty"`
	Stamp    string       `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// ActionTokens signs and verifies short lived, single purpose tokens with
// the application secret.
type ActionTokens struct {
	secret []byte
	Now    func() time.Time
}

func NewActionTokens(secret string) *ActionTokens {
	return &ActionTokens{secret: []byte(secret), Now: time.Now}
}

func (a *ActionTokens) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Generate returns a token for userID that expires after ttl.
func (a *ActionTokens) Generate(purpose TokenPurpose, userID int64, newEmail string, ttl time.Duration) (string, error) {
	return a.sign(&ActionClaims{Purpose: purpose, UserID: userID, NewEmail: newEmail}, ttl)
}

// GenerateStamped is Generate with a stamp the caller compares against
// current state on use, so the token dies once that state changes.
func (a *ActionTokens) GenerateStamped(purpose TokenPurpose, userID int64, stamp string, ttl time.Duration) (string, error) {
	return a.sign(&ActionClaims{Purpose: purpose, UserID: userID, Stamp: stamp}, ttl)
}

func (a *ActionTokens) sign(claims *ActionClaims, ttl time.Duration) (string, error) {
	now := a.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// PasswordStamp fingerprints a password hash without putting the hash
// itself into a token.
func PasswordStamp(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

// Verify decodes token and checks signature, expiry and purpose. Every
// failure reports ok=false without saying which check failed.
func (a *ActionTokens) Verify(token string, purpose TokenPurpose) (*ActionClaims, bool) {
	claims := &ActionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return nil, false
	}
	if claims.Purpose != purpose || claims.UserID <= 0 {
		return nil, false
	}
	return claims, true
}
