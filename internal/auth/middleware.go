package auth

import (
	"context"
	"net/http"
	"time"
)

// SessionCookie is the name of the HttpOnly cookie carrying the JWT.
const SessionCookie = "token"

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write
// session values in the context — no collisions with other packages.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// session in the request context. A missing or invalid token stops the
// chain with 401 — Unauthenticated, as opposed to the 403 handlers return
// when a known user touches someone else's resource.
//
// Sliding refresh: when a valid token is older than RefreshAfter, a fresh
// cookie is issued on the way through, so active sessions never hit the
// 30-day cliff.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, issuedAt, err := extractSession(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthenticated","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			maybeRefresh(w, tokens, session, issuedAt)

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the session if a valid token is present but never
// blocks the request. Use it on public reads (the tweet feed) where a
// logged-in viewer gets isLiked flags and an anonymous one doesn't.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, issuedAt, err := extractSession(r, tokens); err == nil {
				maybeRefresh(w, tokens, session, issuedAt)
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the authenticated session from the request
// context. Returns (Session{}, false) for anonymous requests.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.UserID != ""
}

// SetSessionCookie writes the JWT into the HttpOnly session cookie.
// HttpOnly keeps JavaScript away from the token (XSS protection);
// SameSite=Lax keeps it off cross-site POSTs.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
// The token itself stays valid until expiry — stateless logout.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractSession(r *http.Request, tokens *TokenService) (Session, time.Time, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return Session{}, time.Time{}, err
	}
	return tokens.Validate(cookie.Value)
}

func maybeRefresh(w http.ResponseWriter, tokens *TokenService, session Session, issuedAt time.Time) {
	if issuedAt.IsZero() || time.Since(issuedAt) < RefreshAfter {
		return
	}
	if refreshed, err := tokens.Issue(session); err == nil {
		SetSessionCookie(w, refreshed)
	}
	// A failed refresh is not fatal — the current token is still valid.
}
