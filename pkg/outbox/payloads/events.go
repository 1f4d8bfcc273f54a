package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// EarningRecordedEvent is emitted the first time an order produces a
// ledger row for an affiliate link.
type EarningRecordedEvent struct {
	EarningID        uuid.UUID              `json:"earning_id"`
	OrderID          uuid.UUID              `json:"order_id"`
	StoreID          uuid.UUID              `json:"store_id"`
	AffiliateID      uuid.UUID              `json:"affiliate_id"`
	StoreAffiliateID uuid.UUID              `json:"store_affiliate_id"`
	CouponID         *uuid.UUID             `json:"coupon_id,omitempty"`
	OrderTotal       decimal.Decimal        `json:"order_total"`
	CommissionAmount decimal.Decimal        `json:"commission_amount"`
	CommissionSource enums.CommissionSource `json:"commission_source"`
	Status           enums.EarningStatus    `json:"status"`
}

// EarningStatusChangedEvent reports a ledger transition, including
// recomputed commission amounts after an order update.
type EarningStatusChangedEvent struct {
	EarningID        uuid.UUID           `json:"earning_id"`
	OrderID          uuid.UUID           `json:"order_id"`
	StoreID          uuid.UUID           `json:"store_id"`
	AffiliateID      uuid.UUID           `json:"affiliate_id"`
	PreviousStatus   enums.EarningStatus `json:"previous_status"`
	Status           enums.EarningStatus `json:"status"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
}

// EarningMaturedEvent is emitted once when a delivered earning gets its
// availability timestamp stamped.
type EarningMaturedEvent struct {
	EarningID        uuid.UUID       `json:"earning_id"`
	StoreID          uuid.UUID       `json:"store_id"`
	AffiliateID      uuid.UUID       `json:"affiliate_id"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	AvailableAt      time.Time       `json:"available_at"`
}

// WithdrawalRequestedEvent is emitted when an affiliate asks to cash out.
type WithdrawalRequestedEvent struct {
	RequestID   uuid.UUID       `json:"request_id"`
	AffiliateID uuid.UUID       `json:"affiliate_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    enums.Currency  `json:"currency"`
	RequestedAt time.Time       `json:"requested_at"`
}

// WithdrawalSettledEvent carries the payout instruction for a request an
// admin marked paid. Downstream payout workers key off pix_key. Earnings
// are consumed whole, so consumed_total can exceed amount; the difference
// is the residual the payout collaborator reconciles.
type WithdrawalSettledEvent struct {
	RequestID     uuid.UUID       `json:"request_id"`
	AffiliateID   uuid.UUID       `json:"affiliate_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	Amount        decimal.Decimal `json:"amount"`
	ConsumedTotal decimal.Decimal `json:"consumed_total"`
	Currency      enums.Currency  `json:"currency"`
	PixKey        string          `json:"pix_key"`
	EarningIDs    []uuid.UUID     `json:"earning_ids"`
	PaidAt        time.Time       `json:"paid_at"`
}

// WithdrawalRejectedEvent reports a rejected request so the affiliate can
// be notified; the reserved balance is released.
type WithdrawalRejectedEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	AffiliateID uuid.UUID `json:"affiliate_id"`
	StoreID     uuid.UUID `json:"store_id"`
	AdminNotes  string    `json:"admin_notes,omitempty"`
}

// AffiliateLinkActivatedEvent is emitted when an invited affiliate joins
// a store's program.
type AffiliateLinkActivatedEvent struct {
	StoreAffiliateID uuid.UUID `json:"store_affiliate_id"`
	StoreID          uuid.UUID `json:"store_id"`
	AffiliateID      uuid.UUID `json:"affiliate_id"`
	ActivatedAt      time.Time `json:"activated_at"`
}

// CouponLinkedEvent is emitted when a coupon is attached to an affiliate
// link for attribution.
type CouponLinkedEvent struct {
	CouponID         uuid.UUID `json:"coupon_id"`
	StoreID          uuid.UUID `json:"store_id"`
	StoreAffiliateID uuid.UUID `json:"store_affiliate_id"`
	Code             string    `json:"code"`
}
