package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sakthi-t/bookscart/api/responses"
	"github.com/sakthi-t/bookscart/pkg/config"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is the readiness probe surface of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BooksCart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis; either failing yields a 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BooksCart-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var failed error
		if dbPinger == nil {
			checks["database"] = "unconfigured"
		} else if err := dbPinger.Ping(ctx); err != nil {
			checks["database"] = "error"
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready")
		}
		if redisPinger == nil {
			checks["redis"] = "unconfigured"
		} else if err := redisPinger.Ping(ctx); err != nil {
			checks["redis"] = "error"
			if failed == nil {
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready")
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.As(failed).WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
