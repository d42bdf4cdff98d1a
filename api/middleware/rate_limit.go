package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/fieldtally/stocktake-backend/api/responses"
	"github.com/fieldtally/stocktake-backend/pkg/config"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// SubmitRateLimit throttles count submissions per counter. Offline devices
// replay their queued submissions on reconnect, so the window must admit a
// realistic burst; the limit exists to stop a client stuck in a retry loop
// from hammering the commit path. A nil store or a disabled policy passes
// everything through, and a limiter backend failure fails open so counting
// never stalls on Redis.
func SubmitRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.SubmitLimit <= 0 || cfg.SubmitWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, "submit:"+userID, int64(cfg.SubmitLimit), cfg.SubmitWindow)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "submit rate limiter unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"user_id":        userID,
						"attempts":       count,
						"limit":          cfg.SubmitLimit,
						"window_seconds": int(cfg.SubmitWindow.Seconds()),
					})
					logg.Warn(logCtx, "submit rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many submissions, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
