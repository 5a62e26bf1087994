package affiliates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

// Service exposes affiliate attribution operations.
type Service interface {
	GetActiveByTrackingCode(ctx context.Context, code string) (*models.Affiliate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	RecordCommission(ctx context.Context, tx *gorm.DB, input RecordCommissionInput) (*models.AffiliateCommission, error)
}

// RecordCommissionInput captures one attributed order's referral fee.
type RecordCommissionInput struct {
	AffiliateID uuid.UUID
	OrderID     uuid.UUID
	AmountCents int64
	Rate        decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires an affiliates service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("affiliates repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetActiveByTrackingCode(ctx context.Context, code string) (*models.Affiliate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking code required")
	}
	affiliate, err := s.repo.FindActiveByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	return affiliate, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	return affiliate, nil
}

// RecordCommission writes one AffiliateCommission row inside the
// caller's transaction. One row per attributed order; the amount is
// the per-line commission summed across the order.
func (s *service) RecordCommission(ctx context.Context, tx *gorm.DB, input RecordCommissionInput) (*models.AffiliateCommission, error) {
	if input.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	commission := &models.AffiliateCommission{
		AffiliateID: input.AffiliateID,
		OrderID:     input.OrderID,
		AmountCents: input.AmountCents,
		Rate:        input.Rate,
	}
	if err := s.repo.WithTx(tx).CreateCommission(ctx, commission); err != nil {
		if db.IsUniqueViolation(err, "idx_affiliate_commissions_affiliate_order") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "commission already recorded for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record affiliate commission")
	}
	return commission, nil
}
