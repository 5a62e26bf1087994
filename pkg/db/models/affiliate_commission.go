package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// AffiliateCommission records the referral fee earned on one
// attributed order. One row per order, carrying the summed per-line
// commission.
type AffiliateCommission struct {
	ID          uuid.UUID                       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AffiliateID uuid.UUID                       `gorm:"column:affiliate_id;type:uuid;not null;index;uniqueIndex:idx_affiliate_commissions_affiliate_order"`
	OrderID     uuid.UUID                       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_affiliate_commissions_affiliate_order"`
	AmountCents int64                           `gorm:"column:amount_cents;not null"`
	Rate        decimal.Decimal                 `gorm:"column:rate;type:numeric(5,2);not null"`
	Status      enums.AffiliateCommissionStatus `gorm:"column:status;type:affiliate_commission_status;not null;default:'pending'"`
	PaidAt      *time.Time                      `gorm:"column:paid_at"`
	CreatedAt   time.Time                       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                       `gorm:"column:updated_at;autoUpdateTime"`
}
