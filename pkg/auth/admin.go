package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// ParseAdminIDs splits a comma-separated ADMIN_USER_IDS value.
func ParseAdminIDs(s string) []string {
	var ids []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// WithIsAdmin stores the admin flag in the context.
func WithIsAdmin(ctx context.Context, isAdmin bool) context.Context {
	return context.WithValue(ctx, isAdminKey, isAdmin)
}

// IsAdminFromContext returns whether the authenticated user is an admin.
// Returns false when not set.
func IsAdminFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(isAdminKey).(bool)
	return v
}

// AdminMiddleware marks the request as admin when the authenticated user ID is
// one of adminIDs. It must run after RequireAuth or DevAuth. Handlers decide
// what a non-admin gets.
func AdminMiddleware(adminIDs []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			isAdmin := ok && slices.Contains(adminIDs, userID)
			next.ServeHTTP(w, r.WithContext(WithIsAdmin(r.Context(), isAdmin)))
		})
	}
}
