package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// RateResolution is the outcome of resolving a commission rate for a
// product: the rate itself plus provenance for audit display.
type RateResolution struct {
	Rate   decimal.Decimal        `json:"rate"`
	Source enums.CommissionSource `json:"source"`
	Reason string                 `json:"reason"`
}

// LineBreakdown is the exact monetary split for one order line.
// PlatformCommissionCents + VendorPayoutCents always equals
// AmountCents; the affiliate cut comes out of the platform share.
type LineBreakdown struct {
	ProductID                uuid.UUID              `json:"product_id"`
	VendorID                 uuid.UUID              `json:"vendor_id"`
	AmountCents              int64                  `json:"amount_cents"`
	PlatformCommissionCents  int64                  `json:"platform_commission_cents"`
	VendorPayoutCents        int64                  `json:"vendor_payout_cents"`
	AffiliateCommissionCents int64                  `json:"affiliate_commission_cents"`
	Rate                     decimal.Decimal        `json:"rate"`
	Source                   enums.CommissionSource `json:"source"`
	Reason                   string                 `json:"reason"`
}

// OrderSummary aggregates line breakdowns for a whole order.
type OrderSummary struct {
	Lines                    []LineBreakdown     `json:"lines"`
	TotalCents               int64               `json:"total_cents"`
	PlatformCommissionCents  int64               `json:"platform_commission_cents"`
	AffiliateCommissionCents int64               `json:"affiliate_commission_cents"`
	VendorPayouts            map[uuid.UUID]int64 `json:"vendor_payouts"`
}

// LineInput identifies one sellable line for order-level calculation.
type LineInput struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
}

// CreateRuleInput carries the admin-supplied fields for a new rule.
type CreateRuleInput struct {
	AppliesTo  string     `json:"applies_to" validate:"required,oneof=product category vendor global"`
	TargetID   *uuid.UUID `json:"target_id"`
	Rate       string     `json:"rate" validate:"required"`
	Priority   int        `json:"priority"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
	Reason     string     `json:"reason" validate:"required,max=500"`
}

// ListRulesFilters narrows the admin rule listing.
type ListRulesFilters struct {
	AppliesTo  *enums.RuleAppliesTo
	TargetID   *uuid.UUID
	ActiveOnly bool
}
