// Package auth resolves the authenticated session behind a request.
//
// The platform's account system (signup, password reset, role
// assignment) lives elsewhere; this package only verifies the signed
// session token it issues and exposes who is calling and their role.
// Resolver is an interface so handler tests can stub sessions without
// minting tokens.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Platform roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// SessionCookie is the cookie fallback for browser clients that do not
// set an Authorization header.
const SessionCookie = "coach_session"

var (
	// ErrNoSession means the request carried no credentials at all.
	ErrNoSession = errors.New("no authenticated session")
	// ErrInvalidToken means credentials were present but unverifiable.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session identifies an authenticated caller.
type Session struct {
	UserID string
	Role   Role
}

// Resolver resolves the session behind an incoming request.
type Resolver interface {
	Resolve(r *http.Request) (*Session, error)
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenResolver verifies HS256-signed session tokens.
type TokenResolver struct {
	secret []byte
}

// NewTokenResolver creates a resolver verifying tokens signed with secret.
func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret)}
}

// Resolve implements Resolver. It accepts a bearer token in the
// Authorization header or the session cookie.
func (tr *TokenResolver) Resolve(r *http.Request) (*Session, error) {
	raw := bearerToken(r)
	if raw == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return nil, ErrNoSession
	}
	return tr.Verify(raw)
}

// Verify parses and validates a raw session token.
func (tr *TokenResolver) Verify(raw string) (*Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tr.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Session{
		UserID: claims.Subject,
		Role:   Role(claims.Role),
	}, nil
}

// IssueToken mints a session token. The platform's login service is the
// normal issuer; this exists for local development and tests.
func (tr *TokenResolver) IssueToken(userID string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tr.secret)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
