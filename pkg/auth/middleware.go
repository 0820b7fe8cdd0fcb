package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	isAdminKey contextKey = "is_admin"
)

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// WithUserID stores the user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// tokenFromRequest reads the token from the session cookie, falling back to
// an Authorization: Bearer header for scripts and the CLI.
func tokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookieName()); err == nil && c.Value != "" {
		return c.Value, true
	}
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
		return strings.TrimSpace(token), true
	}
	return "", false
}

// RequireAuth verifies the token and puts the user ID in the context.
func RequireAuth(sessionSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)
			if !ok {
				writeAuthError(w, "unauthorized")
				return
			}

			userID, err := VerifySessionToken(token, sessionSecret, time.Now())
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					writeAuthError(w, "session_expired")
					return
				}
				writeAuthError(w, "invalid_session")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// DevUserID is the user ID DevAuth injects (AUTH_REQUIRED=false).
const DevUserID = "dev-user-id"

// DevAuth is development middleware. It sets DevUserID in the context.
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithUserID(r.Context(), DevUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
