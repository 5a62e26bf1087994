package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// Repository manages persistence for commission rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *models.CommissionRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error)
	List(ctx context.Context, filters ListRulesFilters) ([]models.CommissionRule, error)
	Deactivate(ctx context.Context, id uuid.UUID) (int64, error)
	FindActiveRule(ctx context.Context, appliesTo enums.RuleAppliesTo, targetID *uuid.UUID, at time.Time) (*models.CommissionRule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rules repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) List(ctx context.Context, filters ListRulesFilters) ([]models.CommissionRule, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionRule{})
	if filters.AppliesTo != nil {
		query = query.Where("applies_to = ?", *filters.AppliesTo)
	}
	if filters.TargetID != nil {
		query = query.Where("target_id = ?", *filters.TargetID)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var rules []models.CommissionRule
	if err := query.
		Order("priority DESC").
		Order("created_at DESC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CommissionRule{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// FindActiveRule selects the single winning rule for a scope/target at
// the given instant: active, inside its validity window, highest
// priority, ties broken by newest created_at. Returns nil when nothing
// matches.
func (r *repository) FindActiveRule(ctx context.Context, appliesTo enums.RuleAppliesTo, targetID *uuid.UUID, at time.Time) (*models.CommissionRule, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CommissionRule{}).
		Where("applies_to = ?", appliesTo).
		Where("is_active = ?", true).
		Where("valid_from IS NULL OR valid_from <= ?", at).
		Where("valid_until IS NULL OR valid_until >= ?", at)

	if targetID != nil {
		query = query.Where("target_id = ?", *targetID)
	} else {
		query = query.Where("target_id IS NULL")
	}

	var rules []models.CommissionRule
	if err := query.
		Order("priority DESC").
		Order("created_at DESC").
		Limit(1).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}
