package earnings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// OrderEvent is the normalized shape both ingestion paths (webhook and
// Pub/Sub) deliver to the ledger. Attribution comes from the coupon code
// or, for storefronts that link directly, an explicit store affiliate id.
type OrderEvent struct {
	OrderID          uuid.UUID         `json:"order_id"`
	StoreID          uuid.UUID         `json:"store_id"`
	Status           enums.OrderStatus `json:"status"`
	CouponCode       string            `json:"coupon_code,omitempty"`
	StoreAffiliateID *uuid.UUID        `json:"store_affiliate_id,omitempty"`
	OrderCreatedAt   time.Time         `json:"order_created_at"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty"`
	Items            []rules.OrderItem `json:"items"`
}

// UpdateStatusInput is the staff override on a single earning.
type UpdateStatusInput struct {
	EarningID   uuid.UUID           `json:"earning_id" validate:"required"`
	Status      enums.EarningStatus `json:"status" validate:"required"`
	ActorUserID uuid.UUID           `json:"-"`
}

// AggregateFilter scopes aggregate queries to one affiliate, optionally
// one store and a time window over earning creation.
type AggregateFilter struct {
	AffiliateID uuid.UUID  `json:"affiliate_id"`
	StoreID     *uuid.UUID `json:"store_id,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
}

// Summary is the aggregate money view of one affiliate's ledger.
type Summary struct {
	Earned            decimal.Decimal `json:"earned"`
	Maturing          decimal.Decimal `json:"maturing"`
	Available         decimal.Decimal `json:"available_for_withdrawal"`
	PendingProcessing decimal.Decimal `json:"pending_processing"`
	Cancelled         decimal.Decimal `json:"cancelled"`
}

// ListFilter selects ledger rows for history views. Cursor is an opaque
// keyset token from a previous page.
type ListFilter struct {
	AffiliateID uuid.UUID            `json:"affiliate_id"`
	StoreID     *uuid.UUID           `json:"store_id,omitempty"`
	Status      *enums.EarningStatus `json:"status,omitempty"`
	Limit       int                  `json:"limit"`
	Cursor      string               `json:"cursor,omitempty"`
}

// Page is one history page plus the cursor for the next one.
type Page struct {
	Items      []models.AffiliateEarning `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}
