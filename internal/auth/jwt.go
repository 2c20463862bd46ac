// Package auth provides session tokens, password hashing, and the HTTP
// middleware that ties them to requests.
//
// SESSION FLOW:
//  1. POST /auth/login verifies credentials and issues a JWT
//  2. The JWT is stored in an HttpOnly cookie
//  3. On later requests, middleware validates the cookie's signature and
//     expiry and puts the session identity in the request context
//  4. While the session stays active, the cookie is re-issued periodically
//     so the 30-day window slides instead of expiring mid-use
//
// JWT is stateless — the server stores no session table. Everything needed
// (userID, username, expiry) lives inside the signed token, and the HMAC
// signature means nobody can alter it without the secret key. Client-supplied
// identity claims are never trusted until the signature checks out.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenLifetime is the session validity window.
	TokenLifetime = 30 * 24 * time.Hour

	// RefreshAfter is how old a token may get before the middleware
	// re-issues the cookie on the next authenticated request.
	RefreshAfter = 24 * time.Hour

	issuer = "microblog"
)

// Session is the verified identity carried by a token.
type Session struct {
	UserID   string
	Username string
}

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify — the same key for both, so keep it safe
// and rotate it periodically in production.
type TokenService struct {
	secret []byte
	now    func() time.Time // injectable clock for expiry tests
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// sessionClaims is the JWT payload: the standard registered claims plus the
// username, so handlers can display who is logged in without a DB lookup.
// The "sub" claim carries the internal user ID.
type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given identity.
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, fine for a
// single-server deployment.
func (s *TokenService) Issue(session Session) (string, error) {
	return s.IssueWithDuration(session, TokenLifetime)
}

// IssueWithDuration creates a token with a custom validity window.
// Used in tests to mint already-stale or short-lived tokens.
func (s *TokenService) IssueWithDuration(session Session, d time.Duration) (string, error) {
	now := s.now()

	c := sessionClaims{
		Username: session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the session it
// encodes plus when the token was issued (the middleware uses the issue
// time to decide whether to refresh the cookie).
//
// Checks performed by the jwt library: signature integrity, expiry, issuer,
// and that the algorithm really is HS256 — passing jwt.WithValidMethods
// blocks algorithm-confusion attacks where a token claims "none".
func (s *TokenService) Validate(tokenStr string) (Session, time.Time, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, time.Time{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, time.Time{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return Session{}, time.Time{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Session{}, time.Time{}, fmt.Errorf("auth: token has no subject")
	}

	issuedAt := time.Time{}
	if c.IssuedAt != nil {
		issuedAt = c.IssuedAt.Time
	}

	return Session{UserID: c.Subject, Username: c.Username}, issuedAt, nil
}
