// Package auth issues and verifies the bearer tokens used by the API and the
// console. Tokens are HS256 JWTs whose subject is the user's email.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/repository"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

// Tokens signs and parses access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for email and its expiry.
func (t *Tokens) Issue(email string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates the signature and expiry and returns the subject email.
func (t *Tokens) Parse(token string) (string, error) {
	if token == "" {
		return "", appErr.New(appErr.CodeUnauthorized, "missing token")
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return "", appErr.Wrap(err, appErr.CodeUnauthorized, "invalid token")
	}
	if claims.Subject == "" {
		return "", appErr.New(appErr.CodeUnauthorized, "token has no subject")
	}
	return claims.Subject, nil
}

// Verifier checks a token and that its subject is still a registered user.
type Verifier struct {
	tokens *Tokens
	users  repository.UserRepository
}

func NewVerifier(tokens *Tokens, users repository.UserRepository) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	email, err := v.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	var u models.User
	if err := v.users.GetByEmail(ctx, email, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return "", appErr.New(appErr.CodeUnauthorized, "unknown user")
		}
		return "", err
	}
	return u.Email, nil
}

// IsUnauthorized reports whether err means the credential was rejected.
func IsUnauthorized(err error) bool {
	return err != nil && (appErr.IsCode(err, appErr.CodeUnauthorized) || errors.Is(err, jwt.ErrTokenExpired))
}
