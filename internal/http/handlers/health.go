package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/n1rocket/go-profile-validity/internal/http/response"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles the liveness endpoint
func Health(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Ready returns the readiness handler. Each check gets two seconds; any
// failure turns the response into a 503.
func Ready(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := ReadyResponse{Status: "ready", Services: make(map[string]string, len(checks))}
		status := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Services[name] = "unavailable"
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Services[name] = "ok"
		}

		response.WriteJSON(w, status, resp)
	}
}
