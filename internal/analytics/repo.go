package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	"github.com/vendora-hq/vendora-backend/pkg/pagination"
)

// Repository runs the reporting queries. Read-only.
type Repository interface {
	ListVendorPayouts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutHistory, error)
	ItemTotals(ctx context.Context, from, to time.Time) (orderCount, grossCents, platformCents, vendorCents, affiliateCents int64, err error)
	PayoutTotalsByStatus(ctx context.Context, from, to time.Time) ([]PayoutStatusTotal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListVendorPayouts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*PayoutHistory, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.VendorPayout
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	history := &PayoutHistory{Payouts: make([]PayoutHistoryEntry, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		history.Payouts = append(history.Payouts, PayoutHistoryEntry{
			PayoutID:    row.ID,
			OrderID:     row.OrderID,
			AmountCents: row.AmountCents,
			Status:      row.Status,
			TransferRef: row.TransferRef,
			CompletedAt: row.CompletedAt,
			CreatedAt:   row.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		history.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return history, nil
}

func (r *repository) ItemTotals(ctx context.Context, from, to time.Time) (int64, int64, int64, int64, int64, error) {
	var row struct {
		OrderCount     int64
		GrossCents     int64
		PlatformCents  int64
		VendorCents    int64
		AffiliateCents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select(`
			COUNT(DISTINCT order_items.order_id) AS order_count,
			COALESCE(SUM(order_items.total_cents), 0) AS gross_cents,
			COALESCE(SUM(order_items.platform_commission_cents), 0) AS platform_cents,
			COALESCE(SUM(order_items.vendor_payout_cents), 0) AS vendor_cents,
			COALESCE(SUM(order_items.affiliate_commission_cents), 0) AS affiliate_cents`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status <> ?", enums.PaymentStatusUnpaid).
		Where("order_items.created_at BETWEEN ? AND ?", from, to).
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, 0, 0, err
	}
	return row.OrderCount, row.GrossCents, row.PlatformCents, row.VendorCents, row.AffiliateCents, nil
}

func (r *repository) PayoutTotalsByStatus(ctx context.Context, from, to time.Time) ([]PayoutStatusTotal, error) {
	var totals []PayoutStatusTotal
	err := r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS amount_cents").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("status").
		Order("status ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
