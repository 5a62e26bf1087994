package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// Vendor is a selling party on the marketplace. CommissionRate, when
// set, overrides the tier default during rate resolution.
type Vendor struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string                     `gorm:"column:name;not null"`
	Email                *string                    `gorm:"column:email"`
	CommissionTier       enums.VendorTier           `gorm:"column:commission_tier;type:vendor_tier;not null;default:'standard'"`
	CommissionRate       *decimal.Decimal           `gorm:"column:commission_rate;type:numeric(5,2)"`
	TotalSalesCents      int64                      `gorm:"column:total_sales_cents;not null;default:0"`
	ConnectAccountID     *string                    `gorm:"column:connect_account_id;unique"`
	ConnectAccountStatus enums.ConnectAccountStatus `gorm:"column:connect_account_status;type:connect_account_status;not null;default:'not_connected'"`
	Active               bool                       `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutReady reports whether the vendor can receive processor transfers.
func (v *Vendor) PayoutReady() bool {
	return v != nil && v.ConnectAccountID != nil && v.ConnectAccountStatus.IsReady()
}
