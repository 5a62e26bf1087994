package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. CommissionOverride, when set, beats the
// category and vendor rates during resolution. The live PriceCents is
// snapshotted onto order items at sale time and never re-read.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID           uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	CategoryID         *uuid.UUID       `gorm:"column:category_id;type:uuid;index"`
	Name               string           `gorm:"column:name;not null"`
	SKU                string           `gorm:"column:sku;not null;unique"`
	PriceCents         int64            `gorm:"column:price_cents;not null"`
	CommissionOverride *decimal.Decimal `gorm:"column:commission_override;type:numeric(5,2)"`
	StockQty           int              `gorm:"column:stock_qty;not null;default:0"`
	Active             bool             `gorm:"column:active;not null;default:true"`
	Vendor             *Vendor          `gorm:"foreignKey:VendorID"`
	Category           *Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
