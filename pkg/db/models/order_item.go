package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// OrderItem snapshots a sold line at order-creation time. The price
// and the commission split are computed once and are immutable
// afterward, so historical orders stay auditable against the rules in
// effect when they were placed.
type OrderItem struct {
	ID                       uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                  uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID                uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	VendorID                 uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	ProductName              string                 `gorm:"column:product_name;not null"`
	Quantity                 int                    `gorm:"column:quantity;not null"`
	UnitPriceCents           int64                  `gorm:"column:unit_price_cents;not null"`
	TotalCents               int64                  `gorm:"column:total_cents;not null"`
	PlatformCommissionCents  int64                  `gorm:"column:platform_commission_cents;not null"`
	VendorPayoutCents        int64                  `gorm:"column:vendor_payout_cents;not null"`
	AffiliateCommissionCents int64                  `gorm:"column:affiliate_commission_cents;not null;default:0"`
	CommissionRate           decimal.Decimal        `gorm:"column:commission_rate;type:numeric(5,2);not null"`
	CommissionSource         enums.CommissionSource `gorm:"column:commission_source;type:commission_source;not null"`
	CommissionReason         string                 `gorm:"column:commission_reason;not null"`
	CreatedAt                time.Time              `gorm:"column:created_at;autoCreateTime"`
}
