package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

// EarningList returns the authenticated affiliate's ledger history.
func EarningList(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earning service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := earnings.ListFilter{AffiliateID: affiliateID}
		query := r.URL.Query()
		if raw := strings.TrimSpace(query.Get("store_id")); raw != "" {
			storeID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_id"))
				return
			}
			filter.StoreID = &storeID
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseEarningStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			filter.Status = &status
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, 200); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Cursor = strings.TrimSpace(query.Get("cursor"))

		page, err := svc.ListEarnings(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := earningListResponse{
			Items:      make([]earningResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for i := range page.Items {
			out.Items = append(out.Items, earningResponseFromModel(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// EarningSummary returns the aggregate money buckets for the affiliate.
func EarningSummary(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earning service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := earnings.AggregateFilter{AffiliateID: affiliateID}
		query := r.URL.Query()
		if raw := strings.TrimSpace(query.Get("store_id")); raw != "" {
			storeID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_id"))
				return
			}
			filter.StoreID = &storeID
		}
		if from, err := queryTime(query.Get("from")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if from != nil {
			filter.From = from
		}
		if to, err := queryTime(query.Get("to")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if to != nil {
			filter.To = to
		}

		summary, err := svc.Aggregates(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type earningStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EarningUpdateStatus is the store-staff override on one earning.
func EarningUpdateStatus(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earning service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		earningID, err := pathUUID(r, "earningId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := svc.GetEarning(r.Context(), earningID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if existing.StoreID != storeID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "earning belongs to another store"))
			return
		}

		var payload earningStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseEarningStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), earnings.UpdateStatusInput{
			EarningID:   earningID,
			Status:      status,
			ActorUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, earningResponseFromModel(updated))
	}
}

func queryTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "timestamps must be RFC3339")
	}
	return &value, nil
}

type earningListResponse struct {
	Items      []earningResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type earningResponse struct {
	ID                    uuid.UUID           `json:"id"`
	OrderID               uuid.UUID           `json:"order_id"`
	StoreID               uuid.UUID           `json:"store_id"`
	StoreAffiliateID      uuid.UUID           `json:"store_affiliate_id"`
	CouponID              *uuid.UUID          `json:"coupon_id,omitempty"`
	OrderStatus           enums.OrderStatus   `json:"order_status"`
	OrderTotal            decimal.Decimal     `json:"order_total"`
	CommissionAmount      decimal.Decimal     `json:"commission_amount"`
	Status                enums.EarningStatus `json:"status"`
	CommissionAvailableAt *time.Time          `json:"commission_available_at,omitempty"`
	NeedsReconciliation   bool                `json:"needs_reconciliation"`
	PaidAt                *time.Time          `json:"paid_at,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

func earningResponseFromModel(m *models.AffiliateEarning) earningResponse {
	return earningResponse{
		ID:                    m.ID,
		OrderID:               m.OrderID,
		StoreID:               m.StoreID,
		StoreAffiliateID:      m.StoreAffiliateID,
		CouponID:              m.CouponID,
		OrderStatus:           m.OrderStatus,
		OrderTotal:            m.OrderTotal,
		CommissionAmount:      m.CommissionAmount,
		Status:                m.Status,
		CommissionAvailableAt: m.CommissionAvailableAt,
		NeedsReconciliation:   m.NeedsReconciliation,
		PaidAt:                m.PaidAt,
		CreatedAt:             m.CreatedAt,
	}
}
