package http

import (
	"net/http"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/pkg/api"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
)

// ReadyzHandler is the readiness probe; it checks the database before
// declaring the service ready.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &api.HealthChecks{Database: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, api.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
