package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldtally/stocktake-backend/api/middleware"
	"github.com/fieldtally/stocktake-backend/api/responses"
	"github.com/fieldtally/stocktake-backend/api/validators"
	"github.com/fieldtally/stocktake-backend/internal/conflicts"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/pagination"
)

type resolveConflictRequest struct {
	Resolution string  `json:"resolution" validate:"required"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type resolveBatchRequest struct {
	ConflictIDs []string `json:"conflict_ids" validate:"required,min=1,max=100,dive,uuid"`
	Resolution  string   `json:"resolution" validate:"required"`
	Note        *string  `json:"note,omitempty" validate:"omitempty,max=500"`
}

func ListConflicts(svc conflicts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "conflicts service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), conflicts.ListInput{
			Status: conflicts.StatusFilter(strings.TrimSpace(r.URL.Query().Get("status"))),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func ConflictStats(svc conflicts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "conflicts service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

func ResolveConflict(svc conflicts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "conflicts service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.StaffRole(middleware.RoleFromContext(r.Context()))

		conflictID, err := validators.ParseUUIDParam(r, "conflictId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveConflictRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolution, err := enums.ParseConflictResolution(payload.Resolution)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resolution"))
			return
		}

		resolved, err := svc.ResolveOne(r.Context(), conflicts.ResolveInput{
			ConflictID: conflictID,
			Resolution: resolution,
			Note:       payload.Note,
			ActorID:    actorID,
			ActorRole:  role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resolved)
	}
}

func ResolveConflictBatch(svc conflicts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "conflicts service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.StaffRole(middleware.RoleFromContext(r.Context()))

		var payload resolveBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolution, err := enums.ParseConflictResolution(payload.Resolution)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resolution"))
			return
		}

		conflictIDs := make([]uuid.UUID, 0, len(payload.ConflictIDs))
		for _, raw := range payload.ConflictIDs {
			id, parseErr := uuid.Parse(strings.TrimSpace(raw))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid conflict id"))
				return
			}
			conflictIDs = append(conflictIDs, id)
		}

		result, err := svc.ResolveBatch(r.Context(), conflicts.ResolveBatchInput{
			ConflictIDs: conflictIDs,
			Resolution:  resolution,
			Note:        payload.Note,
			ActorID:     actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
