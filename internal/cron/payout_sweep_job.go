package cron

import (
	"context"
	"fmt"

	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type payoutSweeper interface {
	ProcessPendingPayouts(ctx context.Context) (*settlement.SweepResult, error)
}

// PayoutSweepJobParams configure the pending-payout sweep job.
type PayoutSweepJobParams struct {
	Logger     *logger.Logger
	Settlement payoutSweeper
}

// NewPayoutSweepJob builds the job that consolidates accumulated
// pending payouts into batch transfers.
func NewPayoutSweepJob(params PayoutSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	return &payoutSweepJob{
		logg:       params.Logger,
		settlement: params.Settlement,
	}, nil
}

type payoutSweepJob struct {
	logg       *logger.Logger
	settlement payoutSweeper
}

func (j *payoutSweepJob) Name() string { return "pending-payout-sweep" }

func (j *payoutSweepJob) Run(ctx context.Context) error {
	result, err := j.settlement.ProcessPendingPayouts(ctx)
	if err != nil {
		return fmt.Errorf("payout sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"vendors_examined": result.VendorsExamined,
		"transfers_issued": result.TransfersIssued,
		"rows_completed":   result.RowsCompleted,
		"rows_failed":      result.RowsFailed,
		"rows_deferred":    result.RowsDeferred,
	})
	j.logg.Info(logCtx, "pending payout sweep complete")
	return nil
}
