package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// AffiliateEarning is the ledger row: exactly one per
// (order, store affiliate), upserted on every order event and never
// deleted. StoreID and AffiliateID are denormalized so balance queries
// do not need a join.
type AffiliateEarning struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_affiliate_earnings_order_link"`
	StoreAffiliateID      uuid.UUID           `gorm:"column:store_affiliate_id;type:uuid;not null;uniqueIndex:ux_affiliate_earnings_order_link"`
	StoreID               uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	AffiliateID           uuid.UUID           `gorm:"column:affiliate_id;type:uuid;not null;index"`
	CouponID              *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	OrderStatus           enums.OrderStatus   `gorm:"column:order_status;type:text;not null"`
	OrderTotal            decimal.Decimal     `gorm:"column:order_total;type:decimal(20,2);not null"`
	CommissionAmount      decimal.Decimal     `gorm:"column:commission_amount;type:decimal(20,2);not null"`
	Status                enums.EarningStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CommissionAvailableAt *time.Time          `gorm:"column:commission_available_at"`
	NeedsReconciliation   bool                `gorm:"column:needs_reconciliation;not null;default:false"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`
	WithdrawalRequestID   *uuid.UUID          `gorm:"column:withdrawal_request_id;type:uuid"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
