package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/formgate/pkg/http"
)

// HealthChecker pings a dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health reports database reachability as JSON.
func Health(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, pkghttp.StatusResponse{
				Status: "unhealthy",
				Checks: map[string]string{"database": "down"},
			})
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, pkghttp.StatusResponse{
			Status: "healthy",
			Checks: map[string]string{"database": "up"},
		})
	}
}
