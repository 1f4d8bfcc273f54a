package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// WithdrawalRequest is an affiliate's ask to be paid their available
// balance for one store. A partial unique index on
// (affiliate_id, store_id) WHERE status = 'pending' backs the
// one-pending-request invariant against concurrent writers.
type WithdrawalRequest struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AffiliateID uuid.UUID              `gorm:"column:affiliate_id;type:uuid;not null;index"`
	StoreID     uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:decimal(20,2);not null"`
	Currency    enums.Currency         `gorm:"column:currency;type:text;not null;default:'BRL'"`
	PixKey      string                 `gorm:"column:pix_key;not null"`
	Status      enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AdminNotes  *string                `gorm:"column:admin_notes"`
	RequestedAt time.Time              `gorm:"column:requested_at;not null"`
	PaidAt      *time.Time             `gorm:"column:paid_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
