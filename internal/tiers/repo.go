package tiers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// Repository defines persistence operations for tier classification.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActiveVendors(ctx context.Context) ([]models.Vendor, error)
	TrailingRevenueCents(ctx context.Context, vendorID uuid.UUID, since time.Time) (int64, error)
	UpdateVendorTier(ctx context.Context, vendorID uuid.UUID, updates map[string]any) error
	CreateTierChange(ctx context.Context, change *models.VendorTierChange) error
	ListTierChanges(ctx context.Context, vendorID uuid.UUID) ([]models.VendorTierChange, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tiers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActiveVendors(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// TrailingRevenueCents sums the vendor's order-item revenue since the
// cutoff, excluding cancelled and refunded orders.
func (r *repository) TrailingRevenueCents(ctx context.Context, vendorID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.total_cents), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.vendor_id = ?", vendorID).
		Where("order_items.created_at >= ?", since).
		Where("orders.status NOT IN ?", []enums.OrderStatus{
			enums.OrderStatusCancelled,
			enums.OrderStatusRefunded,
		}).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) UpdateVendorTier(ctx context.Context, vendorID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Updates(updates).Error
}

func (r *repository) CreateTierChange(ctx context.Context, change *models.VendorTierChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

func (r *repository) ListTierChanges(ctx context.Context, vendorID uuid.UUID) ([]models.VendorTierChange, error) {
	var changes []models.VendorTierChange
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}
