package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/affiliates"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

type ruleCreateRequest struct {
	AppliesTo   string          `json:"applies_to" validate:"required"`
	TargetKey   string          `json:"target_key" validate:"required"`
	TargetLabel string          `json:"target_label"`
	Type        string          `json:"type" validate:"required"`
	Value       decimal.Decimal `json:"value" validate:"required"`
}

// RuleCreate upserts a product or category commission override on a link.
func RuleCreate(svc rules.Service, links affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rule service unavailable"))
			return
		}

		linkID, err := storeOwnedLink(r, links)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ruleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appliesTo, err := enums.ParseRuleAppliesTo(payload.AppliesTo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid applies_to"))
			return
		}
		commissionType, err := enums.ParseCommissionType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid type"))
			return
		}

		rule, err := svc.CreateRule(r.Context(), rules.CreateRuleInput{
			StoreAffiliateID: linkID,
			AppliesTo:        appliesTo,
			TargetKey:        payload.TargetKey,
			TargetLabel:      payload.TargetLabel,
			Type:             commissionType,
			Value:            payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ruleResponseFromModel(rule))
	}
}

// RuleList returns all overrides on one of the store's links.
func RuleList(svc rules.Service, links affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rule service unavailable"))
			return
		}

		linkID, err := storeOwnedLink(r, links)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ruleSet, err := svc.ListRules(r.Context(), linkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ruleResponse, 0, len(ruleSet))
		for i := range ruleSet {
			out = append(out, ruleResponseFromModel(&ruleSet[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// RuleDelete removes one override from one of the store's links.
func RuleDelete(svc rules.Service, links affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rule service unavailable"))
			return
		}

		linkID, err := storeOwnedLink(r, links)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ruleID, err := pathUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), linkID, ruleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// storeOwnedLink resolves {linkId} and checks it belongs to the caller's store.
func storeOwnedLink(r *http.Request, links affiliates.Service) (uuid.UUID, error) {
	storeID, err := storeIDFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	linkID, err := pathUUID(r, "linkId")
	if err != nil {
		return uuid.Nil, err
	}
	link, err := links.GetLink(r.Context(), linkID)
	if err != nil {
		return uuid.Nil, err
	}
	if link.StoreID != storeID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "link belongs to another store")
	}
	return linkID, nil
}

type ruleResponse struct {
	ID               uuid.UUID            `json:"id"`
	StoreAffiliateID uuid.UUID            `json:"store_affiliate_id"`
	AppliesTo        enums.RuleAppliesTo  `json:"applies_to"`
	TargetKey        string               `json:"target_key"`
	TargetLabel      string               `json:"target_label"`
	Type             enums.CommissionType `json:"type"`
	Value            decimal.Decimal      `json:"value"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func ruleResponseFromModel(m *models.CommissionRule) ruleResponse {
	return ruleResponse{
		ID:               m.ID,
		StoreAffiliateID: m.StoreAffiliateID,
		AppliesTo:        m.AppliesTo,
		TargetKey:        m.TargetKey,
		TargetLabel:      m.TargetLabel,
		Type:             m.Type,
		Value:            m.Value,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
