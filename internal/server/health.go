package server

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for _, name := range slices.Sorted(maps.Keys(checks)) {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := checks[name](ctx); err != nil {
				requestLogger(r).WarnContext(r.Context(), "health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}
		routing.WriteJSON(w, status, resp)
	})
}
