package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/fieldtally/stocktake-backend/api/responses"
	"github.com/fieldtally/stocktake-backend/pkg/config"
	"github.com/fieldtally/stocktake-backend/pkg/db"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stocktake-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency; any failure turns readiness off so
// the instance is pulled from rotation before requests start failing.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stocktake-Env", cfg.App.Env)

		var errs error
		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "readiness check failed"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
