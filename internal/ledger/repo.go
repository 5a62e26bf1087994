package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// ErrClaimContested reports that another settlement attempt already
// holds at least one of the requested rows. The claim transaction
// rolls back, so no row changes state.
var ErrClaimContested = errors.New("payout claim contested")

// Repository manages persistence for vendor payout ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.VendorPayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorPayout, error)
	ListPendingByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error)
	ListPendingVendorIDs(ctx context.Context) ([]uuid.UUID, error)
	ClaimForSettlement(ctx context.Context, ids []uuid.UUID) error
	ReleaseToPending(ctx context.Context, ids []uuid.UUID, from []enums.PayoutStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, updates map[string]any) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.VendorPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error) {
	var payout models.VendorPayout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorPayout, error) {
	var payouts []models.VendorPayout
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// ListPendingByVendor returns the vendor's pending rows oldest-first,
// but only when the vendor's connected account is active, so batch
// consumers never pick up rows they cannot transfer.
func (r *repository) ListPendingByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	var payouts []models.VendorPayout
	err := r.db.WithContext(ctx).
		Joins("JOIN vendors ON vendors.id = vendor_payouts.vendor_id").
		Where("vendor_payouts.vendor_id = ?", vendorID).
		Where("vendor_payouts.status = ?", enums.PayoutStatusPending).
		Where("vendors.connect_account_status = ?", enums.ConnectAccountStatusActive).
		Where("vendors.connect_account_id IS NOT NULL").
		Order("vendor_payouts.created_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// ListPendingVendorIDs returns the distinct vendors that currently
// hold pending rows, for the batch sweep to walk.
func (r *repository) ListPendingVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Distinct("vendor_id").
		Where("status = ?", enums.PayoutStatusPending).
		Pluck("vendor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ClaimForSettlement moves every requested row from pending to
// in_progress, or none of them. The conditional update and the
// all-rows check share one transaction: losing the race for a single
// row rolls the whole claim back, without touching rows another
// attempt already holds.
func (r *repository) ClaimForSettlement(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.VendorPayout{}).
			Where("id IN ? AND status = ?", ids, enums.PayoutStatusPending).
			Updates(map[string]any{
				"status":     enums.PayoutStatusInProgress,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return ErrClaimContested
		}
		return nil
	})
}

// ReleaseToPending flips rows back to pending, but only from the given
// statuses, so a completed or reversed row can never be reopened.
func (r *repository) ReleaseToPending(ctx context.Context, ids []uuid.UUID, from []enums.PayoutStatus) (int64, error) {
	if len(ids) == 0 || len(from) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Where("id IN ? AND status IN ?", ids, from).
		Updates(map[string]any{
			"status":         enums.PayoutStatusPending,
			"failure_reason": nil,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, updates map[string]any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Where("id IN ?", ids).
		Updates(updates)
	return res.RowsAffected, res.Error
}
