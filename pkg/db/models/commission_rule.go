package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// CommissionRule is an admin-authored override of the commission rate
// for a product, category, vendor, or the whole platform. Among
// multiple matches the highest priority wins; ties break toward the
// most recently created rule. ValidFrom/ValidUntil bound the rule to
// an inclusive date window; nil bounds are unbounded.
type CommissionRule struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AppliesTo  enums.RuleAppliesTo `gorm:"column:applies_to;type:rule_applies_to;not null"`
	TargetID   *uuid.UUID          `gorm:"column:target_id;type:uuid;index"`
	Rate       decimal.Decimal     `gorm:"column:rate;type:numeric(5,2);not null"`
	Priority   int                 `gorm:"column:priority;not null;default:0"`
	IsActive   bool                `gorm:"column:is_active;not null;default:true"`
	ValidFrom  *time.Time          `gorm:"column:valid_from"`
	ValidUntil *time.Time          `gorm:"column:valid_until"`
	Reason     string              `gorm:"column:reason;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// InWindow reports whether the rule's validity window covers the given
// instant. Open bounds are treated as unbounded on that side.
func (r *CommissionRule) InWindow(at time.Time) bool {
	if r == nil {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return false
	}
	return true
}
