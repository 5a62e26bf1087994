package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

// Service is the single write path for the payout ledger. Status moves
// happen only through these operations so the per-order sum invariant
// (pending + completed + failed amounts == the order's vendor payout
// total) always holds.
type Service interface {
	RecordPendingPayout(ctx context.Context, tx *gorm.DB, vendorID, orderID uuid.UUID, amountCents int64, currency enums.Currency) (*models.VendorPayout, error)
	MarkCompleted(ctx context.Context, payoutID uuid.UUID, transferRef string) error
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error
	MarkReversed(ctx context.Context, payoutID uuid.UUID, reversalRef string) error
	MarkCompletedBatch(ctx context.Context, payoutIDs []uuid.UUID, transferRef string) error
	RetryFailed(ctx context.Context, payoutID uuid.UUID) (*models.VendorPayout, error)
	Claim(ctx context.Context, payoutIDs []uuid.UUID) error
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.VendorPayout, error)
	GetPendingPayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error)
	ListPendingVendorIDs(ctx context.Context) ([]uuid.UUID, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorPayout, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordPendingPayout creates one pending ledger row inside the
// caller's transaction. One row per (vendor, order) pair. The row
// keeps the order's currency because rows with different currencies
// can never share a consolidated transfer.
func (s *service) RecordPendingPayout(ctx context.Context, tx *gorm.DB, vendorID, orderID uuid.UUID, amountCents int64, currency enums.Currency) (*models.VendorPayout, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount cannot be negative")
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payout currency")
	}

	payout := &models.VendorPayout{
		VendorID:    vendorID,
		OrderID:     orderID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      enums.PayoutStatusPending,
	}
	if err := s.repo.WithTx(tx).Create(ctx, payout); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pending payout")
	}
	return payout, nil
}

func (s *service) MarkCompleted(ctx context.Context, payoutID uuid.UUID, transferRef string) error {
	if transferRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}
	now := time.Now().UTC()
	return s.transition(ctx, payoutID, map[string]any{
		"status":         enums.PayoutStatusCompleted,
		"transfer_ref":   transferRef,
		"failure_reason": nil,
		"completed_at":   now,
		"updated_at":     now,
	})
}

func (s *service) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	return s.transition(ctx, payoutID, map[string]any{
		"status":         enums.PayoutStatusFailed,
		"failure_reason": reason,
		"updated_at":     time.Now().UTC(),
	})
}

func (s *service) MarkReversed(ctx context.Context, payoutID uuid.UUID, reversalRef string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":      enums.PayoutStatusReversed,
		"reversed_at": now,
		"updated_at":  now,
	}
	if reversalRef != "" {
		updates["reversal_ref"] = reversalRef
	}
	return s.transition(ctx, payoutID, updates)
}

// MarkCompletedBatch stamps every contributing row of a consolidated
// transfer with the same reference.
func (s *service) MarkCompletedBatch(ctx context.Context, payoutIDs []uuid.UUID, transferRef string) error {
	if transferRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}
	if len(payoutIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.repo.UpdateStatusBulk(ctx, payoutIDs, map[string]any{
		"status":         enums.PayoutStatusCompleted,
		"transfer_ref":   transferRef,
		"failure_reason": nil,
		"completed_at":   now,
		"updated_at":     now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payouts completed")
	}
	return nil
}

// RetryFailed re-flags one failed row as pending so the next sweep
// picks it up again. The status guard lives in the update itself, so
// a row that completed in the meantime cannot be reopened.
func (s *service) RetryFailed(ctx context.Context, payoutID uuid.UUID) (*models.VendorPayout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	affected, err := s.repo.ReleaseToPending(ctx, []uuid.UUID{payoutID}, []enums.PayoutStatus{enums.PayoutStatusFailed})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retry failed payout")
	}
	if affected == 0 {
		payout, findErr := s.repo.FindByID(ctx, payoutID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load payout")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only failed payouts can be retried, row is %s", payout.Status))
	}
	return s.GetPayout(ctx, payoutID)
}

// Claim moves the rows from pending to in_progress, failing with a
// state conflict unless every row was claimed. Two concurrent
// settlement attempts over the same rows cannot both succeed here,
// and a lost race leaves every row exactly where it was.
func (s *service) Claim(ctx context.Context, payoutIDs []uuid.UUID) error {
	if len(payoutIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout ids required")
	}
	if err := s.repo.ClaimForSettlement(ctx, payoutIDs); err != nil {
		if errors.Is(err, ErrClaimContested) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already being settled")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim payouts")
	}
	return nil
}

func (s *service) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.VendorPayout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

func (s *service) GetPendingPayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	payouts, err := s.repo.ListPendingByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payouts")
	}
	return payouts, nil
}

func (s *service) ListPendingVendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.ListPendingVendorIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending vendors")
	}
	return ids, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorPayout, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	payouts, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order payouts")
	}
	return payouts, nil
}

func (s *service) transition(ctx context.Context, payoutID uuid.UUID, updates map[string]any) error {
	if payoutID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	affected, err := s.repo.UpdateStatus(ctx, payoutID, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
	}
	return nil
}
