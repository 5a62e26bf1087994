package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// VendorPayout is one ledger row of money owed to a vendor for one
// order. Rows for the same vendor may later settle under a single
// consolidated transfer, but each keeps its own order linkage so a
// refund can reverse exactly the rows it touched.
type VendorPayout struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index;uniqueIndex:idx_vendor_payouts_vendor_order"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:idx_vendor_payouts_vendor_order"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency     `gorm:"column:currency;not null;default:'EUR'"`
	Status        enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	TransferRef   *string            `gorm:"column:transfer_ref;index"`
	ReversalRef   *string            `gorm:"column:reversal_ref"`
	FailureReason *string            `gorm:"column:failure_reason"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	ReversedAt    *time.Time         `gorm:"column:reversed_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
