package withdrawals

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// RequestInput opens a withdrawal request against one store's balance.
// PixKey overrides the affiliate profile key for this payout only.
type RequestInput struct {
	AffiliateID uuid.UUID       `json:"affiliate_id" validate:"required"`
	StoreID     uuid.UUID       `json:"store_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PixKey      string          `json:"pix_key,omitempty"`
}

// SettleInput resolves a pending request to paid or rejected.
type SettleInput struct {
	RequestID   uuid.UUID              `json:"request_id" validate:"required"`
	Outcome     enums.WithdrawalStatus `json:"outcome" validate:"required"`
	AdminNotes  *string                `json:"admin_notes,omitempty"`
	ActorUserID uuid.UUID              `json:"-"`
}

// ListFilter selects withdrawal requests for history views. Cursor is
// an opaque keyset token from a previous page.
type ListFilter struct {
	AffiliateID *uuid.UUID              `json:"affiliate_id,omitempty"`
	StoreID     *uuid.UUID              `json:"store_id,omitempty"`
	Status      *enums.WithdrawalStatus `json:"status,omitempty"`
	Limit       int                     `json:"limit"`
	Cursor      string                  `json:"cursor,omitempty"`
}

// Page is one history page plus the cursor for the next one.
type Page struct {
	Items      []models.WithdrawalRequest `json:"items"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}
