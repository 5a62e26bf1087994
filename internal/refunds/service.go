package refunds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/internal/orders"
	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

// ReversalOutcome reports what happened to one completed payout row
// during a refund.
type ReversalOutcome struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	AmountCents int64     `json:"amount_cents"`
	Reversed    bool      `json:"reversed"`
	ReversalRef string    `json:"reversal_ref,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// RefundResult summarizes a processed refund.
type RefundResult struct {
	OrderID   uuid.UUID         `json:"order_id"`
	RefundRef string            `json:"refund_ref"`
	Reversals []ReversalOutcome `json:"reversals"`
}

// Service coordinates customer refunds with payout reversals.
type Service interface {
	RefundOrder(ctx context.Context, orderID uuid.UUID, amountCents *int64, reason string) (*RefundResult, error)
	HandleProcessorRefund(ctx context.Context, chargeRef string) (*RefundResult, error)
}

type service struct {
	orders    orders.Service
	ordersRep orders.Repository
	ledger    ledger.Service
	processor settlement.Processor
	refunds   RefundClient
	cfg       config.PayoutsConfig
	logg      *logger.Logger
}

// ServiceParams carries refund coordinator dependencies.
type ServiceParams struct {
	Orders     orders.Service
	OrdersRepo orders.Repository
	Ledger     ledger.Service
	Processor  settlement.Processor
	Refunds    RefundClient
	Config     config.PayoutsConfig
	Logger     *logger.Logger
}

// NewService wires the refund coordinator.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if params.Refunds == nil {
		return nil, fmt.Errorf("refund client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:    params.Orders,
		ordersRep: params.OrdersRepo,
		ledger:    params.Ledger,
		processor: params.Processor,
		refunds:   params.Refunds,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// RefundOrder refunds the customer charge, then reverses every
// completed payout row tied to the order. A reversal failure is logged
// and flagged for reconciliation but never blocks the refund itself.
func (s *service) RefundOrder(ctx context.Context, orderID uuid.UUID, amountCents *int64, reason string) (*RefundResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amountCents != nil && *amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can be refunded")
	}
	if order.ChargeRef == nil || *order.ChargeRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no charge to refund")
	}

	refundRef, err := s.createRefund(ctx, *order.ChargeRef, amountCents, reason)
	if err != nil {
		return nil, err
	}
	return s.reverseAndClose(ctx, order, refundRef)
}

// HandleProcessorRefund settles the ledger after a refund initiated on
// the processor side (charge.refunded webhook): the charge is already
// refunded, so only the reversals and the order status remain.
func (s *service) HandleProcessorRefund(ctx context.Context, chargeRef string) (*RefundResult, error) {
	order, err := s.orders.GetOrderByChargeRef(ctx, chargeRef)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusRefunded {
		return &RefundResult{OrderID: order.ID}, nil
	}
	return s.reverseAndClose(ctx, order, "")
}

func (s *service) reverseAndClose(ctx context.Context, order *models.Order, refundRef string) (*RefundResult, error) {
	result := &RefundResult{
		OrderID:   order.ID,
		RefundRef: refundRef,
	}

	payouts, err := s.ledger.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, payout := range payouts {
		if payout.Status != enums.PayoutStatusCompleted {
			continue
		}
		result.Reversals = append(result.Reversals, s.reversePayout(ctx, payout))
	}

	now := time.Now().UTC()
	if err := s.ordersRep.Update(ctx, order.ID, map[string]any{
		"status":         enums.OrderStatusRefunded,
		"payment_status": enums.PaymentStatusRefunded,
		"refunded_at":    now,
		"updated_at":     now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order refunded")
	return result, nil
}

func (s *service) createRefund(ctx context.Context, chargeRef string, amountCents *int64, reason string) (string, error) {
	timeout := s.cfg.ProcessorTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	refundRef, err := s.refunds.CreateRefund(callCtx, chargeRef, amountCents, reason)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "create refund")
	}
	return refundRef, nil
}

func (s *service) reversePayout(ctx context.Context, payout models.VendorPayout) ReversalOutcome {
	outcome := ReversalOutcome{
		PayoutID:    payout.ID,
		VendorID:    payout.VendorID,
		AmountCents: payout.AmountCents,
	}

	logCtx := s.logg.WithPayoutID(s.logg.WithVendorID(ctx, payout.VendorID.String()), payout.ID.String())

	if payout.TransferRef == nil || *payout.TransferRef == "" {
		outcome.Detail = "completed payout has no transfer reference"
		s.logg.Warn(logCtx, "payout reversal skipped: missing transfer reference")
		return outcome
	}

	timeout := s.cfg.ProcessorTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reversalRef, err := s.processor.ReverseTransfer(callCtx, *payout.TransferRef, payout.AmountCents)
	if err != nil {
		// Flagged for manual reconciliation; the refund proceeds.
		outcome.Detail = err.Error()
		s.logg.Error(logCtx, "transfer reversal failed", err)
		return outcome
	}

	if err := s.ledger.MarkReversed(ctx, payout.ID, reversalRef); err != nil {
		outcome.Detail = err.Error()
		s.logg.Error(logCtx, "mark payout reversed", err)
		return outcome
	}

	outcome.Reversed = true
	outcome.ReversalRef = reversalRef
	return outcome
}
