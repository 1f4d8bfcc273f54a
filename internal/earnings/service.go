package earnings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/internal/coupons"
	"github.com/vendalink/affiliates-backend/internal/rules"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
	"github.com/vendalink/affiliates-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type linkReader interface {
	GetLinkByID(ctx context.Context, id uuid.UUID) (*models.StoreAffiliate, error)
	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type ruleLister interface {
	ListByStoreAffiliate(ctx context.Context, storeAffiliateID uuid.UUID) ([]models.CommissionRule, error)
}

type attributionResolver interface {
	ResolveAttribution(ctx context.Context, storeID uuid.UUID, code string) (*coupons.Attribution, error)
}

// Service is the earning ledger: order ingestion, status transitions,
// maturity stamping, and the aggregate money views.
type Service interface {
	RecordOrder(ctx context.Context, event OrderEvent) (*models.AffiliateEarning, error)
	OnOrderStatusChanged(ctx context.Context, event OrderEvent) error
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.AffiliateEarning, error)
	GetEarning(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error)
	ListEarnings(ctx context.Context, filter ListFilter) (*Page, error)
	Aggregates(ctx context.Context, filter AggregateFilter) (*Summary, error)
	ReconcileFlagged(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo                Repository
	links               linkReader
	rules               ruleLister
	attribution         attributionResolver
	tx                  txRunner
	outbox              outboxPublisher
	logg                *logger.Logger
	defaultMaturityDays int
	now                 func() time.Time
}

// Config carries the service's policy knobs.
type Config struct {
	DefaultMaturityDays int
}

// NewService wires the ledger service with the required dependencies.
func NewService(repo Repository, links linkReader, ruleSource ruleLister, attribution attributionResolver, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if links == nil {
		return nil, fmt.Errorf("store affiliate reader required")
	}
	if ruleSource == nil {
		return nil, fmt.Errorf("rule lister required")
	}
	if attribution == nil {
		return nil, fmt.Errorf("attribution resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	days := cfg.DefaultMaturityDays
	if days <= 0 {
		days = DefaultMaturityDays
	}
	return &service{
		repo:                repo,
		links:               links,
		rules:               ruleSource,
		attribution:         attribution,
		tx:                  tx,
		outbox:              outboxSvc,
		logg:                logg,
		defaultMaturityDays: days,
		now:                 time.Now,
	}, nil
}

// RecordOrder upserts the ledger row for (order, store affiliate).
// Replays recompute in place; a second call with identical input leaves
// exactly one row with the same commission amount.
func (s *service) RecordOrder(ctx context.Context, event OrderEvent) (*models.AffiliateEarning, error) {
	if event.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if event.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if !event.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", event.Status))
	}

	linkID, couponID, coupon, err := s.resolveAttribution(ctx, event)
	if err != nil {
		return nil, err
	}
	if linkID == uuid.Nil {
		// No attribution path: the order carries no commission.
		return nil, nil
	}

	link, err := s.links.GetLinkByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store affiliate")
	}
	if link.StoreID != event.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attributed link belongs to another store")
	}
	if link.Status != enums.AffiliateLinkStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "attributed link is not active")
	}

	ruleSet, err := s.rules.ListByStoreAffiliate(ctx, link.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission rules")
	}
	commission := rules.OrderCommission(event.Items, *link, ruleSet, coupon)

	var result *models.AffiliateEarning
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByOrderLink(ctx, event.OrderID, link.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earning")
		}

		if existing == nil {
			earning := &models.AffiliateEarning{
				OrderID:          event.OrderID,
				StoreAffiliateID: link.ID,
				StoreID:          link.StoreID,
				AffiliateID:      link.AffiliateID,
				CouponID:         couponID,
				OrderStatus:      event.Status,
				OrderTotal:       orderTotal(event.Items),
				CommissionAmount: commission,
				Status:           enums.EarningStatusPending,
				DeliveredAt:      event.DeliveredAt,
			}
			if err := repo.Create(ctx, earning); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create earning")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEarningRecorded,
				AggregateType: enums.AggregateEarning,
				AggregateID:   earning.ID,
				Version:       1,
				Data: map[string]any{
					"earning_id":         earning.ID,
					"order_id":           earning.OrderID,
					"store_id":           earning.StoreID,
					"affiliate_id":       earning.AffiliateID,
					"store_affiliate_id": earning.StoreAffiliateID,
					"coupon_id":          earning.CouponID,
					"order_total":        earning.OrderTotal,
					"commission_amount":  earning.CommissionAmount,
					"status":             earning.Status,
				},
			}); err != nil {
				return err
			}
			existing = earning
		} else {
			existing.CommissionAmount = commission
			existing.OrderTotal = orderTotal(event.Items)
			if couponID != nil {
				existing.CouponID = couponID
			}
		}

		if err := s.applyOrderState(ctx, tx, repo, existing, event); err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// OnOrderStatusChanged re-derives every ledger row linked to the order.
// Unknown orders are ignored: a status event for an order that never
// produced an earning is not an error.
func (s *service) OnOrderStatusChanged(ctx context.Context, event OrderEvent) error {
	if event.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !event.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", event.Status))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListByOrder(ctx, event.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order earnings")
		}
		for i := range rows {
			if err := s.applyOrderState(ctx, tx, repo, &rows[i], event); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyOrderState folds one order event into one ledger row: status
// derivation, one-time maturity stamping, and reconciliation of the
// conservative fallback once the true delivery timestamp shows up.
func (s *service) applyOrderState(ctx context.Context, tx *gorm.DB, repo Repository, earning *models.AffiliateEarning, event OrderEvent) error {
	previous := earning.Status
	earning.OrderStatus = event.Status
	if event.DeliveredAt != nil {
		earning.DeliveredAt = event.DeliveredAt
	}

	switch {
	case event.Status.IsCancelled():
		// Cancellation wins over maturity, but never over paid.
		if earning.Status != enums.EarningStatusPaid {
			earning.Status = enums.EarningStatusCancelled
		}
	case earning.Status == enums.EarningStatusCancelled:
		// The order came back from cancelled; the earning follows.
		earning.Status = enums.EarningStatusPending
	}

	if event.Status.IsDelivered() {
		if earning.CommissionAvailableAt == nil {
			availableAt, flagged := s.computeAvailability(ctx, earning, event)
			earning.CommissionAvailableAt = &availableAt
			earning.NeedsReconciliation = flagged
			if err := s.emitMatured(ctx, tx, earning); err != nil {
				return err
			}
		} else if earning.NeedsReconciliation && earning.DeliveredAt != nil {
			availableAt, _ := s.computeAvailability(ctx, earning, event)
			earning.CommissionAvailableAt = &availableAt
			earning.NeedsReconciliation = false
		}
	}

	if err := repo.Update(ctx, earning); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update earning")
	}

	if earning.Status != previous {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEarningStatusChanged,
			AggregateType: enums.AggregateEarning,
			AggregateID:   earning.ID,
			Version:       1,
			Data: map[string]any{
				"earning_id":        earning.ID,
				"order_id":          earning.OrderID,
				"store_id":          earning.StoreID,
				"affiliate_id":      earning.AffiliateID,
				"previous_status":   previous,
				"status":            earning.Status,
				"commission_amount": earning.CommissionAmount,
			},
		})
	}
	return nil
}

func (s *service) computeAvailability(ctx context.Context, earning *models.AffiliateEarning, event OrderEvent) (time.Time, bool) {
	maturityDays := s.defaultMaturityDays
	if store, err := s.links.GetStore(ctx, earning.StoreID); err == nil && store.MaturityDays >= 0 {
		maturityDays = store.MaturityDays
	}
	createdAt := event.OrderCreatedAt
	if createdAt.IsZero() {
		createdAt = earning.CreatedAt
	}
	return ComputeAvailableAt(earning.DeliveredAt, createdAt, maturityDays)
}

func (s *service) emitMatured(ctx context.Context, tx *gorm.DB, earning *models.AffiliateEarning) error {
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEarningMatured,
		AggregateType: enums.AggregateEarning,
		AggregateID:   earning.ID,
		Version:       1,
		Data: map[string]any{
			"earning_id":        earning.ID,
			"store_id":          earning.StoreID,
			"affiliate_id":      earning.AffiliateID,
			"commission_amount": earning.CommissionAmount,
			"available_at":      earning.CommissionAvailableAt,
		},
	})
}

// UpdateStatus is the staff override. Transitions follow the earning
// state machine; paid stamps paid_at and is terminal.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.AffiliateEarning, error) {
	if input.EarningID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "earning id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid earning status %q", input.Status))
	}

	var updated *models.AffiliateEarning
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		earning, err := repo.GetByID(ctx, input.EarningID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "earning not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earning")
		}
		if earning.Status == input.Status {
			updated = earning
			return nil
		}
		if !earning.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move earning from %s to %s", earning.Status, input.Status))
		}

		previous := earning.Status
		earning.Status = input.Status
		if input.Status == enums.EarningStatusPaid {
			now := s.now()
			earning.PaidAt = &now
		}
		if err := repo.Update(ctx, earning); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update earning")
		}
		updated = earning

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEarningStatusChanged,
			AggregateType: enums.AggregateEarning,
			AggregateID:   earning.ID,
			Actor:         actorRef(input.ActorUserID),
			Version:       1,
			Data: map[string]any{
				"earning_id":        earning.ID,
				"order_id":          earning.OrderID,
				"store_id":          earning.StoreID,
				"affiliate_id":      earning.AffiliateID,
				"previous_status":   previous,
				"status":            earning.Status,
				"commission_amount": earning.CommissionAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) GetEarning(ctx context.Context, id uuid.UUID) (*models.AffiliateEarning, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "earning id required")
	}
	earning, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "earning not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earning")
	}
	return earning, nil
}

func (s *service) ListEarnings(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid earning status %q", *filter.Status))
	}
	var cursor *pagination.Cursor
	if filter.Cursor != "" {
		decoded, err := pagination.ParseCursor(filter.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = decoded
	}
	items, next, err := s.repo.List(ctx, filter, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}
	page := &Page{Items: items}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func (s *service) Aggregates(ctx context.Context, filter AggregateFilter) (*Summary, error) {
	if filter.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	summary, err := s.repo.Aggregate(ctx, filter, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate earnings")
	}
	return summary, nil
}

// ReconcileFlagged re-stamps availability for earnings that matured on
// the conservative created_at fallback and have since learned their true
// delivery timestamp.
func (s *service) ReconcileFlagged(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.ListFlaggedForReconciliation(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list flagged earnings")
	}

	reconciled := 0
	for i := range rows {
		earning := rows[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			availableAt, flagged := s.computeAvailability(ctx, &earning, OrderEvent{})
			if flagged {
				return nil
			}
			earning.CommissionAvailableAt = &availableAt
			earning.NeedsReconciliation = false
			return repo.Update(ctx, &earning)
		})
		if err != nil {
			return reconciled, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile earning")
		}
		reconciled++
	}
	if s.logg != nil && reconciled > 0 {
		s.logg.Info(ctx, fmt.Sprintf("reconciled %d earnings", reconciled))
	}
	return reconciled, nil
}

func (s *service) resolveAttribution(ctx context.Context, event OrderEvent) (uuid.UUID, *uuid.UUID, *models.Coupon, error) {
	if event.StoreAffiliateID != nil && *event.StoreAffiliateID != uuid.Nil {
		return *event.StoreAffiliateID, nil, nil, nil
	}
	if event.CouponCode == "" {
		return uuid.Nil, nil, nil, nil
	}

	attribution, err := s.attribution.ResolveAttribution(ctx, event.StoreID, event.CouponCode)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			// Not every coupon belongs to the affiliate program.
			return uuid.Nil, nil, nil, nil
		}
		return uuid.Nil, nil, nil, err
	}
	view := attribution.Coupon
	coupon := &models.Coupon{
		ID:              view.ID,
		StoreID:         view.StoreID,
		Code:            view.Code,
		DiscountType:    view.DiscountType,
		DiscountValue:   view.DiscountValue,
		Scope:           view.Scope,
		ScopeProductID:  view.ScopeProductID,
		ScopeCategories: view.ScopeCategories,
	}
	return attribution.StoreAffiliateID, &view.ID, coupon, nil
}

func orderTotal(items []rules.OrderItem) (total decimal.Decimal) {
	total = decimal.Zero
	for _, item := range items {
		total = total.Add(rules.ItemValueAfterDiscount(item))
	}
	return total.Round(2)
}

func actorRef(userID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID}
}
