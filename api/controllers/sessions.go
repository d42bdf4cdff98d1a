package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/api/middleware"
	"github.com/fieldtally/stocktake-backend/api/responses"
	"github.com/fieldtally/stocktake-backend/api/validators"
	"github.com/fieldtally/stocktake-backend/internal/sessions"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
)

type createSessionRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Mode           string `json:"mode" validate:"required"`
	SerialTracking bool   `json:"serial_tracking"`
	DamageTracking bool   `json:"damage_tracking"`
}

type upsertStockItemRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Category    *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	SubCategory *string         `json:"sub_category,omitempty" validate:"omitempty,max=100"`
	MRP         decimal.Decimal `json:"mrp"`
	SystemQty   decimal.Decimal `json:"system_qty"`
}

func CreateSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseCountMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid count mode"))
			return
		}

		session, err := svc.CreateSession(r.Context(), sessions.CreateSessionInput{
			Name:           validators.SanitizeString(payload.Name, 200),
			Mode:           mode,
			SerialTracking: payload.SerialTracking,
			DamageTracking: payload.DamageTracking,
			CreatedBy:      actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func GetSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GetSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

func CloseSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.StaffRole(middleware.RoleFromContext(r.Context()))

		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CloseSession(r.Context(), sessionID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

func UpsertStockItem(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		itemCode := validators.SanitizeString(chi.URLParam(r, "itemCode"), 64)
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		var payload upsertStockItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpsertStockItem(r.Context(), sessions.UpsertStockItemInput{
			ItemCode:    itemCode,
			Name:        payload.Name,
			Category:    payload.Category,
			SubCategory: payload.SubCategory,
			MRP:         payload.MRP,
			SystemQty:   payload.SystemQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func GetStockItem(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		itemCode := validators.SanitizeString(chi.URLParam(r, "itemCode"), 64)
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		item, err := svc.GetStockItem(r.Context(), itemCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return actorID, nil
}
