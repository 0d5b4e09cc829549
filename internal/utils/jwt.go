// Package utils provides token and password helpers shared by handlers and
// middleware.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token scopes. Every token carries a scope claim so an access token can
// never be replayed as a refresh token or a confirmation link.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

// ErrInvalidToken is returned when a token fails to parse, is expired, or
// carries the wrong scope.
var ErrInvalidToken = errors.New("invalid token")

// Token is a signed JWT together with its expiry.
type Token struct {
	Value string
	Exp   time.Time
}

// NewAccessToken builds and signs a short-lived HS256 JWT whose subject is
// the user's email.
func NewAccessToken(secret, email string, ttlMin int) (Token, error) {
	return newToken(secret, email, ScopeAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs a long-lived HS256 JWT with the refresh
// scope. The raw value is returned to the client and stored verbatim on
// the user row; on refresh the two must match.
func NewRefreshToken(secret, email string, ttlDays int) (Token, error) {
	return newToken(secret, email, ScopeRefresh, time.Duration(ttlDays)*24*time.Hour)
}

// NewEmailToken builds the token embedded in the email-confirmation link.
// It lives for seven days.
func NewEmailToken(secret, email string) (Token, error) {
	return newToken(secret, email, ScopeEmail, 7*24*time.Hour)
}

func newToken(secret, email, scope string, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   email,
		"scope": scope,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// ParseToken validates an HS256 JWT and returns the email subject, checking
// that the scope claim matches the expected scope. Any failure collapses
// into ErrInvalidToken; callers have no use for the distinction.
func ParseToken(secret, raw, wantScope string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != wantScope {
		return "", ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}
