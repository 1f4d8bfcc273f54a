package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendalink/affiliates-backend/internal/earnings"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/metrics"
)

const ordersConsumerName = "order-events"

const (
	eventOrderCreated       = "order.created"
	eventOrderStatusChanged = "order.status_changed"
)

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer feeds order lifecycle events from Pub/Sub into the earning
// ledger, deduplicating replays through Redis.
type Consumer struct {
	svc          earnings.Service
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	metrics      *metrics.WorkerMetrics
	logg         *logger.Logger
}

// NewConsumer builds an order event consumer.
func NewConsumer(svc earnings.Service, subscription *pubsub.Subscriber, manager idempotencyChecker, workerMetrics *metrics.WorkerMetrics, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("earning service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		manager:      manager,
		metrics:      workerMetrics,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

type orderItemMessage struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Category     string          `json:"category"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineDiscount decimal.Decimal `json:"line_discount"`
}

type orderEventMessage struct {
	EventID          uuid.UUID          `json:"event_id"`
	Event            string             `json:"event"`
	OrderID          uuid.UUID          `json:"order_id"`
	StoreID          uuid.UUID          `json:"store_id"`
	Status           string             `json:"status"`
	CouponCode       string             `json:"coupon_code"`
	StoreAffiliateID *uuid.UUID         `json:"store_affiliate_id,omitempty"`
	OrderCreatedAt   time.Time          `json:"order_created_at"`
	DeliveredAt      *time.Time         `json:"delivered_at,omitempty"`
	Items            []orderItemMessage `json:"items"`
}

// process returns true when the message should be acked.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	var message orderEventMessage
	if err := json.Unmarshal(msg.Data, &message); err != nil {
		c.logg.Error(c.logg.WithField(ctx, "message_id", msg.ID), "malformed order event", err)
		c.incFailed("malformed_payload")
		return true
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_id":   message.EventID.String(),
		"event":      message.Event,
		"order_id":   message.OrderID.String(),
	})

	if message.EventID == uuid.Nil {
		c.logg.Error(logCtx, "order event missing event id", fmt.Errorf("event_id required"))
		c.incFailed("missing_event_id")
		return true
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, ordersConsumerName, message.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		c.incFailed("idempotency")
		return false
	}
	if already {
		c.logg.Info(logCtx, "order event already processed")
		if c.metrics != nil {
			c.metrics.IncDuplicate()
		}
		return true
	}

	if err := c.dispatch(logCtx, message); err != nil {
		// Bad input never becomes processable on retry; dependency
		// failures do, so release the dedupe mark and redeliver.
		if isPermanent(err) {
			c.logg.Error(logCtx, "order event rejected", err)
			c.incFailed("rejected")
			return true
		}
		c.logg.Error(logCtx, "order event processing failed", err)
		c.incFailed("processing")
		_ = c.manager.Delete(ctx, ordersConsumerName, message.EventID)
		return false
	}

	if c.metrics != nil {
		c.metrics.IncConsumed(message.Event)
	}
	return true
}

func (c *Consumer) dispatch(ctx context.Context, message orderEventMessage) error {
	event, err := message.toOrderEvent()
	if err != nil {
		return err
	}

	switch message.Event {
	case eventOrderCreated:
		earning, err := c.svc.RecordOrder(ctx, event)
		if err != nil {
			return err
		}
		if earning != nil && c.metrics != nil {
			c.metrics.IncEarningWritten("recorded")
		}
		return nil
	case eventOrderStatusChanged:
		return c.svc.OnOrderStatusChanged(ctx, event)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order event %q", message.Event))
	}
}

func (m orderEventMessage) toOrderEvent() (earnings.OrderEvent, error) {
	status, err := enums.ParseOrderStatus(strings.TrimSpace(m.Status))
	if err != nil {
		return earnings.OrderEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	event := earnings.OrderEvent{
		OrderID:          m.OrderID,
		StoreID:          m.StoreID,
		Status:           status,
		CouponCode:       m.CouponCode,
		StoreAffiliateID: m.StoreAffiliateID,
		OrderCreatedAt:   m.OrderCreatedAt,
		DeliveredAt:      m.DeliveredAt,
	}
	for _, item := range m.Items {
		event.Items = append(event.Items, rules.OrderItem{
			ProductID:    item.ProductID,
			Category:     item.Category,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineDiscount: item.LineDiscount,
		})
	}
	return event, nil
}

func isPermanent(err error) bool {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict:
			return true
		}
	}
	return false
}

func (c *Consumer) incFailed(reason string) {
	if c.metrics != nil {
		c.metrics.IncFailed(reason)
	}
}
