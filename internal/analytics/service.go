package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/pagination"
)

// Service exposes the reporting reads for admin tooling.
type Service interface {
	VendorPayoutHistory(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutHistory, error)
	PlatformCommissionSummary(ctx context.Context, from, to time.Time) (*CommissionSummary, error)
}

type service struct {
	repo Repository
}

// NewService wires an analytics service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) VendorPayoutHistory(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutHistory, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	history, err := s.repo.ListVendorPayouts(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout history")
	}
	return history, nil
}

func (s *service) PlatformCommissionSummary(ctx context.Context, from, to time.Time) (*CommissionSummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range required")
	}
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end precedes start")
	}

	orderCount, gross, platform, vendor, affiliate, err := s.repo.ItemTotals(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate commissions")
	}
	payoutTotals, err := s.repo.PayoutTotalsByStatus(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate payouts")
	}

	return &CommissionSummary{
		From:                     from,
		To:                       to,
		OrderCount:               orderCount,
		GrossSalesCents:          gross,
		PlatformCommissionCents:  platform,
		VendorPayoutCents:        vendor,
		AffiliateCommissionCents: affiliate,
		PayoutTotals:             payoutTotals,
	}, nil
}
