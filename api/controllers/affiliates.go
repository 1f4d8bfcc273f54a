package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

type affiliateCreateRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	PixKey string `json:"pix_key" validate:"required"`
}

// AffiliateCreate registers a new commission partner.
func AffiliateCreate(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		var payload affiliateCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateAffiliate(r.Context(), affiliates.CreateAffiliateInput{
			Name:   validators.SanitizeString(payload.Name, 120),
			Email:  validators.SanitizeString(payload.Email, 254),
			PixKey: validators.SanitizeString(payload.PixKey, 140),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, affiliateResponseFromModel(created))
	}
}

type linkInviteRequest struct {
	AffiliateID     string          `json:"affiliate_id" validate:"required"`
	CommissionType  string          `json:"commission_type"`
	CommissionValue decimal.Decimal `json:"commission_value"`
}

// LinkInvite creates an invited store-affiliate link with the store's
// default commission.
func LinkInvite(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload linkInviteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		affiliateID, err := uuid.Parse(payload.AffiliateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid affiliate_id"))
			return
		}

		input := affiliates.InviteInput{
			StoreID:                storeID,
			AffiliateID:            affiliateID,
			DefaultCommissionValue: payload.CommissionValue,
		}
		if payload.CommissionType != "" {
			commissionType, err := enums.ParseCommissionType(payload.CommissionType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid commission_type"))
				return
			}
			input.DefaultCommissionType = commissionType
		}

		link, err := svc.Invite(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, linkResponseFromModel(link))
	}
}

// LinkAccept activates an invited link for the authenticated affiliate.
func LinkAccept(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return linkDecision(svc, logg, func(r *http.Request, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
		return svc.Accept(r.Context(), linkID, affiliateID)
	})
}

// LinkReject declines an invited link.
func LinkReject(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return linkDecision(svc, logg, func(r *http.Request, linkID, affiliateID uuid.UUID) (*models.StoreAffiliate, error) {
		return svc.Reject(r.Context(), linkID, affiliateID)
	})
}

func linkDecision(svc affiliates.Service, logg *logger.Logger, decide func(*http.Request, uuid.UUID, uuid.UUID) (*models.StoreAffiliate, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		linkID, err := pathUUID(r, "linkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := decide(r, linkID, affiliateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, linkResponseFromModel(link))
	}
}

type linkCommissionRequest struct {
	Type              *string          `json:"type,omitempty"`
	Value             *decimal.Decimal `json:"value,omitempty"`
	CommissionEnabled *bool            `json:"commission_enabled,omitempty"`
}

// LinkUpdateCommission patches the link-level default commission.
func LinkUpdateCommission(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		linkID, err := pathUUID(r, "linkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := svc.GetLink(r.Context(), linkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if existing.StoreID != storeID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "link belongs to another store"))
			return
		}

		var payload linkCommissionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := affiliates.UpdateDefaultCommissionInput{
			StoreAffiliateID:  linkID,
			Value:             payload.Value,
			CommissionEnabled: payload.CommissionEnabled,
		}
		if payload.Type != nil {
			commissionType, err := enums.ParseCommissionType(*payload.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid type"))
				return
			}
			input.Type = &commissionType
		}

		link, err := svc.UpdateDefaultCommission(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, linkResponseFromModel(link))
	}
}

// LinkListForStore returns the store's affiliate links.
func LinkListForStore(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		links, err := svc.ListStoreLinks(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, linkListResponse(links))
	}
}

// LinkListForAffiliate returns the authenticated affiliate's links.
func LinkListForAffiliate(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		affiliateID, err := affiliateIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		links, err := svc.ListAffiliateLinks(r.Context(), affiliateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, linkListResponse(links))
	}
}

type affiliateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PixKey    string    `json:"pix_key"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func affiliateResponseFromModel(m *models.Affiliate) affiliateResponse {
	return affiliateResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		PixKey:    m.PixKey,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

type linkResponse struct {
	ID                     uuid.UUID                 `json:"id"`
	StoreID                uuid.UUID                 `json:"store_id"`
	AffiliateID            uuid.UUID                 `json:"affiliate_id"`
	Status                 enums.AffiliateLinkStatus `json:"status"`
	DefaultCommissionType  enums.CommissionType      `json:"default_commission_type"`
	DefaultCommissionValue decimal.Decimal           `json:"default_commission_value"`
	CommissionEnabled      bool                      `json:"commission_enabled"`
	CreatedAt              time.Time                 `json:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at"`
}

func linkResponseFromModel(m *models.StoreAffiliate) linkResponse {
	return linkResponse{
		ID:                     m.ID,
		StoreID:                m.StoreID,
		AffiliateID:            m.AffiliateID,
		Status:                 m.Status,
		DefaultCommissionType:  m.DefaultCommissionType,
		DefaultCommissionValue: m.DefaultCommissionValue,
		CommissionEnabled:      m.CommissionEnabled,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

func linkListResponse(links []models.StoreAffiliate) []linkResponse {
	out := make([]linkResponse, 0, len(links))
	for i := range links {
		out = append(out, linkResponseFromModel(&links[i]))
	}
	return out
}
