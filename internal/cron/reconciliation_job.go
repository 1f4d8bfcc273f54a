package cron

import (
	"context"
	"fmt"

	"github.com/vendalink/affiliates-backend/pkg/logger"
	"github.com/vendalink/affiliates-backend/pkg/metrics"
)

const reconcileBatchSize = 200

type flaggedReconciler interface {
	ReconcileFlagged(ctx context.Context, limit int) (int, error)
}

// ReconciliationJobParams configure the earning reconciliation sweep.
type ReconciliationJobParams struct {
	Logger     *logger.Logger
	Ledger     flaggedReconciler
	Metrics    *metrics.CronJobMetrics
	BatchSize  int
	MaxBatches int
}

// NewReconciliationJob builds the sweep that re-stamps maturity for
// earnings flagged with needs_reconciliation.
func NewReconciliationJob(params ReconciliationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = reconcileBatchSize
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = 50
	}
	return &reconciliationJob{
		logg:       params.Logger,
		ledger:     params.Ledger,
		metrics:    params.Metrics,
		batchSize:  batchSize,
		maxBatches: maxBatches,
	}, nil
}

type reconciliationJob struct {
	logg       *logger.Logger
	ledger     flaggedReconciler
	metrics    *metrics.CronJobMetrics
	batchSize  int
	maxBatches int
}

func (j *reconciliationJob) Name() string { return "earning-reconciliation" }

func (j *reconciliationJob) Run(ctx context.Context) error {
	total := 0
	for batch := 0; batch < j.maxBatches; batch++ {
		updated, err := j.ledger.ReconcileFlagged(ctx, j.batchSize)
		if err != nil {
			return fmt.Errorf("reconcile flagged earnings: %w", err)
		}
		total += updated
		if updated < j.batchSize {
			break
		}
	}
	j.metrics.AddRowsTouched(j.Name(), total)
	logCtx := j.logg.WithField(ctx, "earnings_reconciled", total)
	j.logg.Info(logCtx, "reconciliation sweep complete")
	return nil
}
