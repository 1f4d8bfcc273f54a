package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/withdrawals"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

type withdrawalRequestRequest struct {
	StoreID string          `json:"store_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	PixKey  string          `json:"pix_key"`
}

// WithdrawalRequest opens a withdrawal against one store's available balance.
func WithdrawalRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload withdrawalRequestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := uuid.Parse(payload.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_id"))
			return
		}

		request, err := svc.RequestWithdrawal(r.Context(), withdrawals.RequestInput{
			AffiliateID: affiliateID,
			StoreID:     storeID,
			Amount:      payload.Amount,
			PixKey:      payload.PixKey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawalResponseFromModel(request))
	}
}

type withdrawalSettleRequest struct {
	Outcome    string  `json:"outcome" validate:"required"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

// WithdrawalSettle resolves a pending request to paid or rejected.
func WithdrawalSettle(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
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
		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := svc.GetRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if existing.StoreID != storeID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another store"))
			return
		}

		var payload withdrawalSettleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := enums.ParseWithdrawalStatus(payload.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome"))
			return
		}

		settled, err := svc.Settle(r.Context(), withdrawals.SettleInput{
			RequestID:   requestID,
			Outcome:     outcome,
			AdminNotes:  payload.AdminNotes,
			ActorUserID: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawalResponseFromModel(settled))
	}
}

// WithdrawalListForAffiliate returns the affiliate's request history.
func WithdrawalListForAffiliate(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listWithdrawals(w, r, svc, logg, withdrawals.ListFilter{AffiliateID: &affiliateID})
	}
}

// WithdrawalListForStore returns the store's request queue.
func WithdrawalListForStore(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listWithdrawals(w, r, svc, logg, withdrawals.ListFilter{StoreID: &storeID})
	}
}

func listWithdrawals(w http.ResponseWriter, r *http.Request, svc withdrawals.Service, logg *logger.Logger, filter withdrawals.ListFilter) {
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseWithdrawalStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
			return
		}
		filter.Status = &status
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 200)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	filter.Limit = limit
	filter.Cursor = strings.TrimSpace(query.Get("cursor"))

	page, err := svc.ListRequests(r.Context(), filter)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	out := withdrawalListResponse{
		Items:      make([]withdrawalResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		out.Items = append(out.Items, withdrawalResponseFromModel(&page.Items[i]))
	}
	responses.WriteSuccess(w, out)
}

type withdrawalListResponse struct {
	Items      []withdrawalResponse `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type withdrawalResponse struct {
	ID          uuid.UUID              `json:"id"`
	AffiliateID uuid.UUID              `json:"affiliate_id"`
	StoreID     uuid.UUID              `json:"store_id"`
	Amount      decimal.Decimal        `json:"amount"`
	Currency    enums.Currency         `json:"currency"`
	PixKey      string                 `json:"pix_key"`
	Status      enums.WithdrawalStatus `json:"status"`
	AdminNotes  *string                `json:"admin_notes,omitempty"`
	RequestedAt time.Time              `json:"requested_at"`
	PaidAt      *time.Time             `json:"paid_at,omitempty"`
}

func withdrawalResponseFromModel(m *models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:          m.ID,
		AffiliateID: m.AffiliateID,
		StoreID:     m.StoreID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		PixKey:      m.PixKey,
		Status:      m.Status,
		AdminNotes:  m.AdminNotes,
		RequestedAt: m.RequestedAt,
		PaidAt:      m.PaidAt,
	}
}
