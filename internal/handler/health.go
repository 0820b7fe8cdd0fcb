package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Components map[string]string `json:"components"`
}

// Health handles GET /api/health. PostgreSQL is required; Redis is checked
// only when configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Message: "Brightside API", Components: map[string]string{}}
	code := http.StatusOK

	probe := func(name string, p Pinger) {
		if err := p.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check failed", "component", name, "error", err)
			resp.Components[name] = "down"
			resp.Status = "unhealthy"
			resp.Message = name + ": " + err.Error()
			code = http.StatusServiceUnavailable
			return
		}
		resp.Components[name] = "up"
	}
	probe("postgres", h.db)
	if h.cache != nil {
		probe("redis", h.cache)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
