package handler

import (
	"context"
	"net/http"
)

// Pinger is anything the health check can probe: the pgx pool, the Redis
// store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the cross-cutting endpoints and middleware that need
// process-level dependencies.
type Handler struct {
	db          Pinger
	cache       Pinger
	frontendURL string
}

// New creates a Handler. cache may be nil when no Redis is configured.
func New(db Pinger, cache Pinger, frontendURL string) *Handler {
	return &Handler{db: db, cache: cache, frontendURL: frontendURL}
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
