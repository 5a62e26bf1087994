package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// PayoutHistoryEntry is one row of a vendor's payout history.
type PayoutHistoryEntry struct {
	PayoutID    uuid.UUID          `json:"payout_id"`
	OrderID     uuid.UUID          `json:"order_id"`
	AmountCents int64              `json:"amount_cents"`
	Status      enums.PayoutStatus `json:"status"`
	TransferRef *string            `json:"transfer_ref,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PayoutHistory wraps a paginated vendor payout listing.
type PayoutHistory struct {
	Payouts    []PayoutHistoryEntry `json:"payouts"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// PayoutStatusTotal aggregates ledger amounts by status.
type PayoutStatusTotal struct {
	Status      enums.PayoutStatus `json:"status"`
	Count       int64              `json:"count"`
	AmountCents int64              `json:"amount_cents"`
}

// CommissionSummary is the platform-wide commission report over a
// date range.
type CommissionSummary struct {
	From                     time.Time           `json:"from"`
	To                       time.Time           `json:"to"`
	OrderCount               int64               `json:"order_count"`
	GrossSalesCents          int64               `json:"gross_sales_cents"`
	PlatformCommissionCents  int64               `json:"platform_commission_cents"`
	VendorPayoutCents        int64               `json:"vendor_payout_cents"`
	AffiliateCommissionCents int64               `json:"affiliate_commission_cents"`
	PayoutTotals             []PayoutStatusTotal `json:"payout_totals"`
}
