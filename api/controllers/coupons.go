package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

type couponRegisterRequest struct {
	Code            string          `json:"code" validate:"required"`
	DiscountType    string          `json:"discount_type" validate:"required"`
	DiscountValue   decimal.Decimal `json:"discount_value" validate:"required"`
	Scope           string          `json:"scope"`
	ScopeProductID  *string         `json:"scope_product_id,omitempty"`
	ScopeCategories []string        `json:"scope_categories,omitempty"`
}

// CouponRegister adds a coupon to the store's attribution registry.
func CouponRegister(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseCommissionType(payload.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount_type"))
			return
		}

		input := coupons.RegisterCouponInput{
			StoreID:         storeID,
			Code:            payload.Code,
			DiscountType:    discountType,
			DiscountValue:   payload.DiscountValue,
			ScopeCategories: payload.ScopeCategories,
		}
		if payload.Scope != "" {
			scope, err := enums.ParseCouponScope(payload.Scope)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid scope"))
				return
			}
			input.Scope = scope
		}
		if payload.ScopeProductID != nil {
			productID, err := uuid.Parse(*payload.ScopeProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope_product_id"))
				return
			}
			input.ScopeProductID = &productID
		}

		coupon, err := svc.RegisterCoupon(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, couponResponseFromModel(coupon))
	}
}

type couponLinkRequest struct {
	StoreAffiliateID string `json:"store_affiliate_id" validate:"required"`
}

// CouponLinkAffiliate attaches a coupon to one of the store's links.
func CouponLinkAffiliate(svc coupons.Service, links affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		linkID, err := uuid.Parse(payload.StoreAffiliateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_affiliate_id"))
			return
		}

		link, err := links.GetLink(r.Context(), linkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if link.StoreID != storeID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "link belongs to another store"))
			return
		}

		if err := svc.LinkAffiliate(r.Context(), coupons.LinkAffiliateInput{
			CouponID:         couponID,
			StoreAffiliateID: linkID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "linked"})
	}
}

// CouponList returns the store's registered coupons.
func CouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		storeID, err := storeIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListStoreCoupons(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]couponResponse, 0, len(list))
		for i := range list {
			out = append(out, couponResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type couponResponse struct {
	ID              uuid.UUID            `json:"id"`
	StoreID         uuid.UUID            `json:"store_id"`
	Code            string               `json:"code"`
	DiscountType    enums.CommissionType `json:"discount_type"`
	DiscountValue   decimal.Decimal      `json:"discount_value"`
	Scope           enums.CouponScope    `json:"scope"`
	ScopeProductID  *uuid.UUID           `json:"scope_product_id,omitempty"`
	ScopeCategories []string             `json:"scope_categories,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func couponResponseFromModel(m *models.Coupon) couponResponse {
	return couponResponse{
		ID:              m.ID,
		StoreID:         m.StoreID,
		Code:            m.Code,
		DiscountType:    m.DiscountType,
		DiscountValue:   m.DiscountValue,
		Scope:           m.Scope,
		ScopeProductID:  m.ScopeProductID,
		ScopeCategories: m.ScopeCategories,
		CreatedAt:       m.CreatedAt,
	}
}
