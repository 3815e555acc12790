package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/pkg/config"
	"github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	redispkg "github.com/waithaka-labs/dukapos-backend/pkg/redis"
)

const envHeader = "X-DukaPOS-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Redis is optional wiring and only
// checked when present.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redispkg.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			if logg != nil {
				logg.Warn(r.Context(), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
