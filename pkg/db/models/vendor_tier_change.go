package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// VendorTierChange is an audit record emitted whenever the tier
// classifier moves a vendor between tiers.
type VendorTierChange struct {
	ID                   uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	OldTier              enums.VendorTier `gorm:"column:old_tier;type:vendor_tier;not null"`
	NewTier              enums.VendorTier `gorm:"column:new_tier;type:vendor_tier;not null"`
	TrailingRevenueCents int64            `gorm:"column:trailing_revenue_cents;not null"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
}
