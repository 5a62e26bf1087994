package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/internal/catalog"
	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
	"github.com/vendora-hq/vendora-backend/pkg/metrics"
)

const (
	pathOrder = "order"
	pathSweep = "sweep"

	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeDeferred  = "deferred"
)

// OrderReader loads the order a settlement draws its source charge from.
type OrderReader interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// VendorOutcome reports what happened to one vendor's payout row
// during settlement.
type VendorOutcome struct {
	PayoutID    uuid.UUID          `json:"payout_id"`
	VendorID    uuid.UUID          `json:"vendor_id"`
	AmountCents int64              `json:"amount_cents"`
	Status      enums.PayoutStatus `json:"status"`
	TransferRef string             `json:"transfer_ref,omitempty"`
	Detail      string             `json:"detail,omitempty"`
}

// SweepResult summarizes one batch run of the pending-payout sweep.
type SweepResult struct {
	VendorsExamined int `json:"vendors_examined"`
	TransfersIssued int `json:"transfers_issued"`
	RowsCompleted   int `json:"rows_completed"`
	RowsFailed      int `json:"rows_failed"`
	RowsDeferred    int `json:"rows_deferred"`
}

// Service orchestrates moving payout money through the processor.
type Service interface {
	SettleOrder(ctx context.Context, orderID uuid.UUID) ([]VendorOutcome, error)
	ProcessPendingPayouts(ctx context.Context) (*SweepResult, error)
}

type service struct {
	ledger    ledger.Service
	catalog   catalog.Service
	orders    OrderReader
	processor Processor
	cfg       config.PayoutsConfig
	logg      *logger.Logger
	metrics   *metrics.SettlementMetrics
}

// ServiceParams carries settlement service dependencies.
type ServiceParams struct {
	Ledger    ledger.Service
	Catalog   catalog.Service
	Orders    OrderReader
	Processor Processor
	Config    config.PayoutsConfig
	Logger    *logger.Logger
	Metrics   *metrics.SettlementMetrics
}

// NewService wires the settlement engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledger:    params.Ledger,
		catalog:   params.Catalog,
		orders:    params.Orders,
		processor: params.Processor,
		cfg:       params.Config,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// SettleOrder attempts an immediate transfer for every pending payout
// row of the order. Vendors without a ready connected account and
// amounts below the minimum threshold stay pending for the sweep; each
// vendor's outcome is independent of the others.
func (s *service) SettleOrder(ctx context.Context, orderID uuid.UUID) ([]VendorOutcome, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	payouts, err := s.ledger.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]VendorOutcome, 0, len(payouts))
	for _, payout := range payouts {
		if payout.Status != enums.PayoutStatusPending {
			continue
		}
		outcomes = append(outcomes, s.settleRow(ctx, order, payout))
	}
	return outcomes, nil
}

func (s *service) settleRow(ctx context.Context, order *models.Order, payout models.VendorPayout) VendorOutcome {
	outcome := VendorOutcome{
		PayoutID:    payout.ID,
		VendorID:    payout.VendorID,
		AmountCents: payout.AmountCents,
		Status:      enums.PayoutStatusPending,
	}

	vendor, err := s.catalog.GetVendor(ctx, payout.VendorID)
	if err != nil {
		outcome.Detail = "vendor lookup failed"
		s.logg.Error(s.payoutCtx(ctx, payout), "settlement vendor lookup failed", err)
		return outcome
	}
	if !vendor.PayoutReady() {
		outcome.Detail = "vendor account not ready"
		s.observe(pathOrder, outcomeDeferred, payout.AmountCents)
		return outcome
	}
	if payout.AmountCents < s.cfg.MinPayoutCents {
		outcome.Detail = "below minimum payout threshold"
		s.observe(pathOrder, outcomeDeferred, payout.AmountCents)
		return outcome
	}

	if err := s.ledger.Claim(ctx, []uuid.UUID{payout.ID}); err != nil {
		outcome.Detail = "payout already being settled"
		return outcome
	}

	input := SplitTransferInput{
		DestinationAccount: *vendor.ConnectAccountID,
		AmountCents:        payout.AmountCents,
		Currency:           currencyCode(order.Currency),
		IdempotencyKey:     IdempotencyKey([]uuid.UUID{payout.ID}),
		OrderRef:           order.ID.String(),
	}
	if order.ChargeRef != nil {
		input.SourceCharge = *order.ChargeRef
	}

	transferRef, err := s.transfer(ctx, input)
	if err != nil {
		reason := err.Error()
		if markErr := s.ledger.MarkFailed(ctx, payout.ID, reason); markErr != nil {
			s.logg.Error(s.payoutCtx(ctx, payout), "mark payout failed", markErr)
		}
		outcome.Status = enums.PayoutStatusFailed
		outcome.Detail = reason
		s.observe(pathOrder, outcomeFailed, payout.AmountCents)
		s.logg.Error(s.payoutCtx(ctx, payout), "split transfer failed", err)
		return outcome
	}

	if err := s.ledger.MarkCompleted(ctx, payout.ID, transferRef); err != nil {
		s.logg.Error(s.payoutCtx(ctx, payout), "mark payout completed", err)
	}
	outcome.Status = enums.PayoutStatusCompleted
	outcome.TransferRef = transferRef
	s.observe(pathOrder, outcomeCompleted, payout.AmountCents)
	s.logg.Info(s.payoutCtx(ctx, payout), "vendor payout settled")
	return outcome
}

// ProcessPendingPayouts consolidates each vendor's accumulated pending
// rows into one transfer per currency once a group's sum clears the
// threshold. A retried run cannot double-pay: the claim excludes rows
// another run took, and the idempotency key pins the transfer to the
// row set.
func (s *service) ProcessPendingPayouts(ctx context.Context) (*SweepResult, error) {
	vendorIDs, err := s.ledger.ListPendingVendorIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, vendorID := range vendorIDs {
		result.VendorsExamined++
		if err := s.sweepVendor(ctx, vendorID, result); err != nil {
			s.logg.Error(s.logg.WithVendorID(ctx, vendorID.String()), "vendor sweep failed", err)
		}
	}
	return result, nil
}

// currencyGroup collects one vendor's pending rows sharing a currency.
// A consolidated transfer carries exactly one currency, so rows from
// orders charged in different currencies never share one.
type currencyGroup struct {
	currency enums.Currency
	ids      []uuid.UUID
	total    int64
}

// groupByCurrency preserves first-seen currency order, and the rows
// arrive oldest-first.
func groupByCurrency(payouts []models.VendorPayout) []currencyGroup {
	index := make(map[enums.Currency]int, 1)
	groups := make([]currencyGroup, 0, 1)
	for _, payout := range payouts {
		i, ok := index[payout.Currency]
		if !ok {
			i = len(groups)
			index[payout.Currency] = i
			groups = append(groups, currencyGroup{currency: payout.Currency})
		}
		groups[i].ids = append(groups[i].ids, payout.ID)
		groups[i].total += payout.AmountCents
	}
	return groups
}

func (s *service) sweepVendor(ctx context.Context, vendorID uuid.UUID, result *SweepResult) error {
	payouts, err := s.ledger.GetPendingPayoutsByVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	if len(payouts) == 0 {
		return nil
	}

	eligible := make([]currencyGroup, 0, 1)
	for _, group := range groupByCurrency(payouts) {
		if group.total < s.cfg.MinPayoutCents {
			result.RowsDeferred += len(group.ids)
			s.observe(pathSweep, outcomeDeferred, group.total)
			continue
		}
		eligible = append(eligible, group)
	}
	if len(eligible) == 0 {
		return nil
	}

	vendor, err := s.catalog.GetVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	if !vendor.PayoutReady() {
		for _, group := range eligible {
			result.RowsDeferred += len(group.ids)
		}
		return nil
	}

	// Sweep transfers draw from the platform balance with no source
	// charge, so a stale local account status would burn a transfer
	// attempt. Ask the processor before claiming anything.
	status, err := s.accountStatus(ctx, *vendor.ConnectAccountID)
	if err != nil {
		for _, group := range eligible {
			result.RowsDeferred += len(group.ids)
		}
		return err
	}
	if !status.PayoutsEnabled {
		for _, group := range eligible {
			result.RowsDeferred += len(group.ids)
		}
		s.logg.Info(s.logg.WithVendorID(ctx, vendorID.String()), "connected account cannot receive payouts, sweep deferred")
		return nil
	}

	var sweepErrs error
	for _, group := range eligible {
		if err := s.sweepGroup(ctx, vendor, group, result); err != nil {
			sweepErrs = multierr.Append(sweepErrs, err)
		}
	}
	return sweepErrs
}

func (s *service) sweepGroup(ctx context.Context, vendor *models.Vendor, group currencyGroup, result *SweepResult) error {
	if err := s.ledger.Claim(ctx, group.ids); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			// Another run holds some of these rows; leave them to it.
			return nil
		}
		return err
	}

	transferRef, err := s.transfer(ctx, SplitTransferInput{
		DestinationAccount: *vendor.ConnectAccountID,
		AmountCents:        group.total,
		Currency:           currencyCode(group.currency),
		IdempotencyKey:     IdempotencyKey(group.ids),
	})
	if err != nil {
		reason := err.Error()
		var markErrs error
		for _, id := range group.ids {
			if markErr := s.ledger.MarkFailed(ctx, id, reason); markErr != nil {
				markErrs = multierr.Append(markErrs, markErr)
			}
		}
		if markErrs != nil {
			s.logg.Error(ctx, "mark swept payouts failed", markErrs)
		}
		result.RowsFailed += len(group.ids)
		s.observe(pathSweep, outcomeFailed, group.total)
		return err
	}

	if err := s.ledger.MarkCompletedBatch(ctx, group.ids, transferRef); err != nil {
		return err
	}
	result.TransfersIssued++
	result.RowsCompleted += len(group.ids)
	s.observe(pathSweep, outcomeCompleted, group.total)
	s.logg.Info(s.logg.WithVendorID(ctx, vendor.ID.String()), fmt.Sprintf("consolidated %s payout settled (%d rows)", currencyCode(group.currency), len(group.ids)))
	return nil
}

// transfer calls the processor under a bounded timeout; a timeout is a
// failure, never an assumed success.
func (s *service) transfer(ctx context.Context, input SplitTransferInput) (string, error) {
	timeout := s.cfg.ProcessorTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transferRef, err := s.processor.CreateSplitTransfer(callCtx, input)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "create split transfer")
	}
	return transferRef, nil
}

func (s *service) accountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	timeout := s.cfg.ProcessorTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := s.processor.GetAccountStatus(callCtx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "check account status")
	}
	return status, nil
}

func (s *service) observe(path, outcome string, amountCents int64) {
	if s.metrics != nil {
		s.metrics.ObserveTransfer(path, outcome, amountCents)
	}
}

func (s *service) payoutCtx(ctx context.Context, payout models.VendorPayout) context.Context {
	ctx = s.logg.WithVendorID(ctx, payout.VendorID.String())
	ctx = s.logg.WithOrderID(ctx, payout.OrderID.String())
	return s.logg.WithPayoutID(ctx, payout.ID.String())
}

// IdempotencyKey derives a stable key from the payout row set being
// settled, so a retried attempt over the same rows reuses the same
// processor-side transfer.
func IdempotencyKey(ids []uuid.UUID) string {
	sorted := make([]string, 0, len(ids))
	for _, id := range ids {
		sorted = append(sorted, id.String())
	}
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return "payout-settlement-" + hex.EncodeToString(sum[:])
}

func currencyCode(c enums.Currency) string {
	return strings.ToLower(string(c))
}
