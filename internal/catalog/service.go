package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

// Service exposes catalog lookups with domain error mapping.
type Service interface {
	GetProductWithVendorAndCategory(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	ReserveStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	SyncConnectStatus(ctx context.Context, accountID string, status enums.ConnectAccountStatus) error
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProductWithVendorAndCategory(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProductWithVendorAndCategory(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

// ReserveStock decrements available stock inside the caller's
// transaction and rejects the order when the product is oversold.
func (s *service) ReserveStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	affected, err := repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}
	return nil
}

// RestoreStock returns reserved units when an order is cancelled
// before payment.
func (s *service) RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := s.repo.WithTx(tx).IncrementStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	return nil
}

// SyncConnectStatus records a connected account's readiness as
// reported by the processor. Unknown accounts are ignored: the vendor
// may not have finished onboarding on this side yet.
func (s *service) SyncConnectStatus(ctx context.Context, accountID string, status enums.ConnectAccountStatus) error {
	if accountID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid connect account status")
	}
	_, err := s.repo.UpdateVendorByConnectAccount(ctx, accountID, map[string]any{
		"connect_account_status": status,
		"updated_at":             time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync connect status")
	}
	return nil
}
