package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/reparalo-app/reparalo-backend/api/responses"
	"github.com/reparalo-app/reparalo-backend/pkg/config"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reparalo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the API's backing services answer. A failing
// dependency flips the endpoint to 503 so the load balancer drains the pod.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reparalo-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				checks[name] = "down"
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+name, err)
				}
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}

// ReadinessDeps bundles the pingers the ready endpoint probes.
func ReadinessDeps(db, redis, gcs pinger) map[string]pinger {
	return map[string]pinger{
		"postgres": db,
		"redis":    redis,
		"gcs":      gcs,
	}
}
