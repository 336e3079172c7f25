package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/pitchlens/internal/api/response"
)

const healthTimeout = 3 * time.Second

// Pinger is satisfied by the Redis cache and the Postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string            `json:"status,omitempty"`
	Error    string            `json:"error,omitempty"`
	Services map[string]string `json:"services"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /health. Nil pingers are skipped,
// so an unconfigured Postgres does not degrade the report.
func NewHealthHandler(services map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Services: make(map[string]string, len(services))}
		healthy := true
		for name, p := range services {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				resp.Services[name] = "unavailable"
				healthy = false
				continue
			}
			resp.Services[name] = "ok"
		}

		if !healthy {
			resp.Error = "degraded"
			response.JSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Status = "ok"
		response.OK(w, resp)
	}
}
