package cron

import (
	"context"
	"fmt"

	"github.com/vendora-hq/vendora-backend/internal/tiers"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type tierClassifier interface {
	ClassifyAll(ctx context.Context) (*tiers.ClassifyResult, error)
}

// TierClassifierJobParams configure the vendor tier classifier job.
type TierClassifierJobParams struct {
	Logger *logger.Logger
	Tiers  tierClassifier
}

// NewTierClassifierJob builds the job that recomputes vendor tiers
// from trailing revenue.
func NewTierClassifierJob(params TierClassifierJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tiers == nil {
		return nil, fmt.Errorf("tiers service required")
	}
	return &tierClassifierJob{
		logg:  params.Logger,
		tiers: params.Tiers,
	}, nil
}

type tierClassifierJob struct {
	logg  *logger.Logger
	tiers tierClassifier
}

func (j *tierClassifierJob) Name() string { return "vendor-tier-classifier" }

func (j *tierClassifierJob) Run(ctx context.Context) error {
	result, err := j.tiers.ClassifyAll(ctx)
	if err != nil {
		return fmt.Errorf("tier classification: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"vendors_examined": result.VendorsExamined,
		"vendors_changed":  result.VendorsChanged,
	})
	j.logg.Info(logCtx, "vendor tier classification complete")
	return nil
}
