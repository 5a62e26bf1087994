package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Affiliate is a referral partner. Orders attributed to its tracking
// code earn a commission deducted from platform net revenue.
type Affiliate struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	TrackingCode string          `gorm:"column:tracking_code;not null;unique"`
	Rate         decimal.Decimal `gorm:"column:rate;type:numeric(5,2);not null"`
	PayoutMethod string          `gorm:"column:payout_method;not null;default:'bank_transfer'"`
	Active       bool            `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
