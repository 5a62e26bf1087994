package affiliates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
)

// Repository manages persistence for affiliates and their commissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByTrackingCode(ctx context.Context, code string) (*models.Affiliate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	CreateCommission(ctx context.Context, commission *models.AffiliateCommission) error
	ListCommissionsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateCommission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an affiliates repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByTrackingCode(ctx context.Context, code string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.WithContext(ctx).
		Where("tracking_code = ? AND active = ?", code, true).
		First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&affiliate).Error; err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) CreateCommission(ctx context.Context, commission *models.AffiliateCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) ListCommissionsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateCommission, error) {
	var commissions []models.AffiliateCommission
	err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("created_at ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}
