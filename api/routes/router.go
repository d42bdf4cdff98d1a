package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldtally/stocktake-backend/api/controllers"
	"github.com/fieldtally/stocktake-backend/api/middleware"
	"github.com/fieldtally/stocktake-backend/internal/conflicts"
	"github.com/fieldtally/stocktake-backend/internal/counts"
	"github.com/fieldtally/stocktake-backend/internal/sessions"
	"github.com/fieldtally/stocktake-backend/pkg/config"
	"github.com/fieldtally/stocktake-backend/pkg/db"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	sessionsSvc sessions.Service,
	countsSvc counts.Service,
	conflictsSvc conflicts.Service,
) http.Handler {
	var idemStore redis.IdempotencyStore
	var cachePinger redis.Pinger
	var submitLimiter redis.RateLimiter
	if redisClient != nil {
		idemStore = redisClient
		cachePinger = redisClient
		submitLimiter = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/sessions", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.RoleSupervisor), logg)).
				Post("/", controllers.CreateSession(sessionsSvc, logg))
			r.Get("/{sessionId}", controllers.GetSession(sessionsSvc, logg))
			r.With(middleware.RequireRole(string(enums.RoleSupervisor), logg)).
				Post("/{sessionId}/close", controllers.CloseSession(sessionsSvc, logg))

			r.Get("/{sessionId}/items/{itemCode}/counted", controllers.CheckItemCounted(countsSvc, logg))
			r.With(middleware.SubmitRateLimit(cfg.RateLimit, submitLimiter, logg)).
				Post("/{sessionId}/counts", controllers.SubmitCount(countsSvc, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.With(middleware.RequireRole(string(enums.RoleSupervisor), logg)).
				Put("/{itemCode}", controllers.UpsertStockItem(sessionsSvc, logg))
			r.Get("/{itemCode}", controllers.GetStockItem(sessionsSvc, logg))
		})

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", controllers.ListConflicts(conflictsSvc, logg))
			r.Get("/stats", controllers.ConflictStats(conflictsSvc, logg))
			r.With(middleware.RequireRole(string(enums.RoleSupervisor), logg)).
				Post("/{conflictId}/resolve", controllers.ResolveConflict(conflictsSvc, logg))
			r.With(middleware.RequireRole(string(enums.RoleSupervisor), logg)).
				Post("/resolve-batch", controllers.ResolveConflictBatch(conflictsSvc, logg))
		})
	})

	return r
}
