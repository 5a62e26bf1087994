package tiers

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ClassifyResult summarizes one classifier run.
type ClassifyResult struct {
	VendorsExamined int `json:"vendors_examined"`
	VendorsChanged  int `json:"vendors_changed"`
}

// Service recomputes vendor tiers from trailing revenue. Idempotent:
// re-running against unchanged revenue makes no writes.
type Service interface {
	ClassifyAll(ctx context.Context) (*ClassifyResult, error)
	ClassifyTier(revenueCents int64) enums.VendorTier
}

type service struct {
	repo Repository
	tx   txRunner
	cfg  config.TiersConfig
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the tier classifier.
func NewService(repo Repository, tx txRunner, cfg config.TiersConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tiers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		cfg:  cfg,
		logg: logg,
		now:  time.Now,
	}, nil
}

// ClassifyTier maps trailing revenue to a tier by ascending threshold.
func (s *service) ClassifyTier(revenueCents int64) enums.VendorTier {
	switch {
	case revenueCents >= s.cfg.PlatinumRevenueCents:
		return enums.VendorTierPlatinum
	case revenueCents >= s.cfg.GoldRevenueCents:
		return enums.VendorTierGold
	case revenueCents >= s.cfg.SilverRevenueCents:
		return enums.VendorTierSilver
	default:
		return enums.VendorTierStandard
	}
}

// ClassifyAll walks every active vendor, recomputes its tier from the
// trailing window, and applies changes atomically together with an
// audit record. Vendors pinned at enterprise are never touched, and
// already-computed order commissions are never revisited.
func (s *service) ClassifyAll(ctx context.Context) (*ClassifyResult, error) {
	vendors, err := s.repo.ListActiveVendors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	windowDays := s.cfg.TrailingWindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	since := s.now().UTC().AddDate(0, 0, -windowDays)

	result := &ClassifyResult{}
	for _, vendor := range vendors {
		result.VendorsExamined++
		if vendor.CommissionTier == enums.VendorTierEnterprise {
			continue
		}

		revenue, err := s.repo.TrailingRevenueCents(ctx, vendor.ID, since)
		if err != nil {
			s.logg.Error(s.logg.WithVendorID(ctx, vendor.ID.String()), "trailing revenue query failed", err)
			continue
		}

		newTier := s.ClassifyTier(revenue)
		if newTier == vendor.CommissionTier {
			continue
		}

		if err := s.applyChange(ctx, vendor, newTier, revenue); err != nil {
			s.logg.Error(s.logg.WithVendorID(ctx, vendor.ID.String()), "tier change failed", err)
			continue
		}
		result.VendorsChanged++
	}
	return result, nil
}

func (s *service) applyChange(ctx context.Context, vendor models.Vendor, newTier enums.VendorTier, revenueCents int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rate := newTier.DefaultCommissionRate()
		if err := repo.UpdateVendorTier(ctx, vendor.ID, map[string]any{
			"commission_tier":   newTier,
			"commission_rate":   rate,
			"total_sales_cents": revenueCents,
			"updated_at":        s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor tier")
		}

		change := &models.VendorTierChange{
			VendorID:             vendor.ID,
			OldTier:              vendor.CommissionTier,
			NewTier:              newTier,
			TrailingRevenueCents: revenueCents,
		}
		if err := repo.CreateTierChange(ctx, change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tier change")
		}

		s.logg.Info(
			s.logg.WithVendorID(ctx, vendor.ID.String()),
			fmt.Sprintf("vendor tier changed %s -> %s", vendor.CommissionTier, newTier),
		)
		return nil
	})
}
