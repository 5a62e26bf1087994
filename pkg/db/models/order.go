package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// Order aggregates the items of a single customer purchase. ChargeRef
// holds the processor charge the customer paid with; split transfers
// and refunds are issued against it.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   int64               `gorm:"column:order_number;not null;unique"`
	BuyerRef      string              `gorm:"column:buyer_ref;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'EUR'"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	ChargeRef     *string             `gorm:"column:charge_ref;index"`
	AffiliateID   *uuid.UUID          `gorm:"column:affiliate_id;type:uuid;index"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt   *time.Time          `gorm:"column:confirmed_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
