package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendalink/affiliates-backend/internal/earnings"
	dbpkg "github.com/vendalink/affiliates-backend/pkg/db"
	"github.com/vendalink/affiliates-backend/pkg/db/models"
	"github.com/vendalink/affiliates-backend/pkg/enums"
	pkgerrors "github.com/vendalink/affiliates-backend/pkg/errors"
	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/outbox"
	"github.com/vendalink/affiliates-backend/pkg/outbox/payloads"
	"github.com/vendalink/affiliates-backend/pkg/pagination"
)

const singlePendingConstraint = "ux_withdrawal_requests_single_pending"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type affiliateReader interface {
	GetAffiliateByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
}

// Service handles withdrawal requests and their settlement against the
// earning ledger.
type Service interface {
	RequestWithdrawal(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Settle(ctx context.Context, input SettleInput) (*models.WithdrawalRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListRequests(ctx context.Context, filter ListFilter) (*Page, error)
}

type service struct {
	repo       Repository
	ledger     earnings.Repository
	affiliates affiliateReader
	tx         txRunner
	outbox     outboxPublisher
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the withdrawal service with the required dependencies.
func NewService(repo Repository, ledger earnings.Repository, affiliates affiliateReader, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("earning ledger repository required")
	}
	if affiliates == nil {
		return nil, fmt.Errorf("affiliate reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:       repo,
		ledger:     ledger,
		affiliates: affiliates,
		tx:         tx,
		outbox:     outboxSvc,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// RequestWithdrawal opens a pending request after checking, inside one
// transaction, that no other pending request exists and the available
// balance covers the amount. The partial unique index backs the
// one-pending invariant against concurrent writers.
func (s *service) RequestWithdrawal(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if input.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	affiliate, err := s.affiliates.GetAffiliateByID(ctx, input.AffiliateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	pixKey := strings.TrimSpace(input.PixKey)
	if pixKey == "" {
		pixKey = affiliate.PixKey
	}
	if pixKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pix key required")
	}

	var request *models.WithdrawalRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		pending, err := repo.HasPending(ctx, input.AffiliateID, input.StoreID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending requests")
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeDuplicatePendingRequest, "a pending withdrawal request already exists")
		}

		balance, err := ledger.AvailableBalance(ctx, input.AffiliateID, input.StoreID, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute available balance")
		}
		if balance.LessThan(input.Amount) {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance,
				fmt.Sprintf("available balance %s does not cover %s", balance.StringFixed(2), input.Amount.StringFixed(2)))
		}

		request = &models.WithdrawalRequest{
			AffiliateID: input.AffiliateID,
			StoreID:     input.StoreID,
			Amount:      input.Amount.Round(2),
			Currency:    enums.CurrencyBRL,
			PixKey:      pixKey,
			Status:      enums.WithdrawalStatusPending,
			RequestedAt: s.now(),
		}
		if err := repo.Create(ctx, request); err != nil {
			if dbpkg.IsUniqueViolation(err, singlePendingConstraint) {
				return pkgerrors.New(pkgerrors.CodeDuplicatePendingRequest, "a pending withdrawal request already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawalRequest,
			AggregateID:   request.ID,
			Version:       1,
			Data: payloads.WithdrawalRequestedEvent{
				RequestID:   request.ID,
				AffiliateID: request.AffiliateID,
				StoreID:     request.StoreID,
				Amount:      request.Amount,
				Currency:    request.Currency,
				RequestedAt: request.RequestedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Settle resolves a pending request. paid stamps paid_at, marks the
// covered earnings paid oldest maturity first and queues the payout
// instruction; rejected releases the balance. Both outcomes are terminal.
func (s *service) Settle(ctx context.Context, input SettleInput) (*models.WithdrawalRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.Outcome != enums.WithdrawalStatusPaid && input.Outcome != enums.WithdrawalStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid settlement outcome %q", input.Outcome))
	}

	var settled *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.GetByIDForUpdate(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}
		if request.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("withdrawal request already %s", request.Status))
		}

		request.Status = input.Outcome
		request.AdminNotes = input.AdminNotes

		if input.Outcome == enums.WithdrawalStatusRejected {
			if err := repo.Update(ctx, request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal request")
			}
			settled = request
			notes := ""
			if input.AdminNotes != nil {
				notes = *input.AdminNotes
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventWithdrawalRejected,
				AggregateType: enums.AggregateWithdrawalRequest,
				AggregateID:   request.ID,
				Actor:         actorRef(input.ActorUserID),
				Version:       1,
				Data: payloads.WithdrawalRejectedEvent{
					RequestID:   request.ID,
					AffiliateID: request.AffiliateID,
					StoreID:     request.StoreID,
					AdminNotes:  notes,
				},
			})
		}

		paidAt := s.now()
		request.PaidAt = &paidAt

		earningIDs, consumed, err := s.markEarningsPaid(ctx, tx, request, paidAt)
		if err != nil {
			return err
		}
		if consumed.GreaterThan(request.Amount) && s.logg != nil {
			lctx := s.logg.WithFields(ctx, map[string]any{
				"request_id": request.ID.String(),
				"amount":     request.Amount.StringFixed(2),
				"consumed":   consumed.StringFixed(2),
				"residual":   consumed.Sub(request.Amount).StringFixed(2),
			})
			s.logg.Warn(lctx, "withdrawal.settle.overshoot")
		}
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal request")
		}
		settled = request

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalSettled,
			AggregateType: enums.AggregateWithdrawalRequest,
			AggregateID:   request.ID,
			Actor:         actorRef(input.ActorUserID),
			Version:       1,
			Data: payloads.WithdrawalSettledEvent{
				RequestID:     request.ID,
				AffiliateID:   request.AffiliateID,
				StoreID:       request.StoreID,
				Amount:        request.Amount,
				ConsumedTotal: consumed,
				Currency:      request.Currency,
				PixKey:        request.PixKey,
				EarningIDs:    earningIDs,
				PaidAt:        paidAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// markEarningsPaid consumes available earnings oldest maturity first
// until their sum covers the request amount, returning the ids and the
// consumed total (which can overshoot the amount, since earnings are
// consumed whole). The balance was checked at request time; earnings
// cancelled since then can leave it short.
func (s *service) markEarningsPaid(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest, paidAt time.Time) ([]uuid.UUID, decimal.Decimal, error) {
	ledger := s.ledger.WithTx(tx)

	available, err := ledger.ListAvailable(ctx, request.AffiliateID, request.StoreID, s.now())
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available earnings")
	}

	covered := decimal.Zero
	var earningIDs []uuid.UUID
	for i := range available {
		if covered.GreaterThanOrEqual(request.Amount) {
			break
		}
		earning := available[i]
		earning.Status = enums.EarningStatusPaid
		earning.PaidAt = &paidAt
		earning.WithdrawalRequestID = &request.ID
		if err := ledger.Update(ctx, &earning); err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark earning paid")
		}
		covered = covered.Add(earning.CommissionAmount)
		earningIDs = append(earningIDs, earning.ID)
	}
	if covered.LessThan(request.Amount) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientBalance,
			fmt.Sprintf("available earnings %s no longer cover %s", covered.StringFixed(2), request.Amount.StringFixed(2)))
	}
	return earningIDs, covered, nil
}

func (s *service) GetRequest(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
	}
	return request, nil
}

func (s *service) ListRequests(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid withdrawal status %q", *filter.Status))
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawal requests")
	}
	page := &Page{Items: items}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func actorRef(userID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID}
}
