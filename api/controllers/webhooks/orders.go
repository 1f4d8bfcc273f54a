package webhooks

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/api/responses"
	"github.com/vendalink/affiliates-backend/api/validators"
	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
)

const (
	eventOrderCreated       = "order.created"
	eventOrderStatusChanged = "order.status_changed"
)

type orderItemPayload struct {
	ProductID    string `json:"product_id" validate:"required"`
	Category     string `json:"category"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,min=1"`
	LineDiscount string `json:"line_discount"`
}

type orderEventPayload struct {
	Event            string             `json:"event" validate:"required"`
	OrderID          string             `json:"order_id" validate:"required"`
	StoreID          string             `json:"store_id" validate:"required"`
	Status           string             `json:"status" validate:"required"`
	CouponCode       string             `json:"coupon_code"`
	StoreAffiliateID *string            `json:"store_affiliate_id,omitempty"`
	OrderCreatedAt   time.Time          `json:"order_created_at"`
	DeliveredAt      *time.Time         `json:"delivered_at,omitempty"`
	Items            []orderItemPayload `json:"items"`
}

func (p orderEventPayload) toOrderEvent() (earnings.OrderEvent, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(p.OrderID))
	if err != nil {
		return earnings.OrderEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id")
	}
	storeID, err := uuid.Parse(strings.TrimSpace(p.StoreID))
	if err != nil {
		return earnings.OrderEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_id")
	}
	status, err := enums.ParseOrderStatus(p.Status)
	if err != nil {
		return earnings.OrderEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	event := earnings.OrderEvent{
		OrderID:        orderID,
		StoreID:        storeID,
		Status:         status,
		CouponCode:     p.CouponCode,
		OrderCreatedAt: p.OrderCreatedAt,
		DeliveredAt:    p.DeliveredAt,
	}
	if p.StoreAffiliateID != nil {
		linkID, err := uuid.Parse(strings.TrimSpace(*p.StoreAffiliateID))
		if err != nil {
			return earnings.OrderEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_affiliate_id")
		}
		event.StoreAffiliateID = &linkID
	}

	for _, item := range p.Items {
		converted, err := item.toOrderItem()
		if err != nil {
			return earnings.OrderEvent{}, err
		}
		event.Items = append(event.Items, converted)
	}
	return event, nil
}

func (p orderItemPayload) toOrderItem() (rules.OrderItem, error) {
	productID, err := uuid.Parse(strings.TrimSpace(p.ProductID))
	if err != nil {
		return rules.OrderItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item product_id")
	}
	unitPrice, err := decimalFromString(p.UnitPrice, "unit_price")
	if err != nil {
		return rules.OrderItem{}, err
	}
	lineDiscount, err := decimalFromString(defaultZero(p.LineDiscount), "line_discount")
	if err != nil {
		return rules.OrderItem{}, err
	}
	return rules.OrderItem{
		ProductID:    productID,
		Category:     p.Category,
		UnitPrice:    unitPrice,
		Quantity:     p.Quantity,
		LineDiscount: lineDiscount,
	}, nil
}

func defaultZero(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "0"
	}
	return raw
}

func decimalFromString(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item "+field)
	}
	return value, nil
}

// Orders ingests order lifecycle events from the order subsystem. The
// same events also arrive over Pub/Sub; both paths are idempotent.
func Orders(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earning service unavailable"))
			return
		}

		var payload orderEventPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := payload.toOrderEvent()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch payload.Event {
		case eventOrderCreated:
			earning, err := svc.RecordOrder(r.Context(), event)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if earning == nil {
				responses.WriteSuccess(w, map[string]string{"status": "no_attribution"})
				return
			}
			responses.WriteSuccess(w, map[string]string{
				"status":     "recorded",
				"earning_id": earning.ID.String(),
			})
		case eventOrderStatusChanged:
			if err := svc.OnOrderStatusChanged(r.Context(), event); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]string{"status": "applied"})
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown event type"))
		}
	}
}
