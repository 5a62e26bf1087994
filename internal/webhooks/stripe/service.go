package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/vendora-hq/vendora-backend/internal/orders"
	"github.com/vendora-hq/vendora-backend/internal/refunds"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type vendorAccountSyncer interface {
	SyncConnectStatus(ctx context.Context, accountID string, status enums.ConnectAccountStatus) error
}

// ServiceParams carries webhook service dependencies.
type ServiceParams struct {
	Orders  orders.Service
	Refunds refunds.Service
	Vendors vendorAccountSyncer
	Logger  *logger.Logger
}

// Service routes verified Stripe events into the payout engine.
type Service struct {
	orders  orders.Service
	refunds refunds.Service
	vendors vendorAccountSyncer
	logg    *logger.Logger
}

// NewService builds the Stripe webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Refunds == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "refunds service required")
	}
	if params.Vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vendor syncer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:  params.Orders,
		refunds: params.Refunds,
		vendors: params.Vendors,
		logg:    params.Logger,
	}, nil
}

// HandleEvent dispatches one verified event. Unknown event types are
// acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeAccountUpdated:
		return s.handleAccountUpdated(ctx, event)
	case stripe.EventTypeChargeRefunded:
		return s.handleChargeRefunded(ctx, event)
	case stripe.EventTypeTransferCreated:
		return s.handleTransferCreated(ctx, event)
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}

	orderID, err := orderIDFromMetadata(session.Metadata)
	if err != nil {
		return err
	}
	chargeRef := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		chargeRef = session.PaymentIntent.ID
	}

	_, outcomes, err := s.orders.ConfirmPayment(ctx, orderID, chargeRef)
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"settlement_outcomes": len(outcomes),
	})
	s.logg.Info(logCtx, "checkout payment confirmed")
	return nil
}

func (s *Service) handleAccountUpdated(ctx context.Context, event *stripe.Event) error {
	var account stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account event")
	}
	if account.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id missing")
	}

	status := classifyAccount(&account)
	if err := s.vendors.SyncConnectStatus(ctx, account.ID, status); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "connect_account", account.ID), "vendor connect status synced")
	return nil
}

func (s *Service) handleChargeRefunded(ctx context.Context, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode charge event")
	}

	chargeRef := charge.ID
	if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
		chargeRef = charge.PaymentIntent.ID
	}

	_, err := s.refunds.HandleProcessorRefund(ctx, chargeRef)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			// Refund of a charge this system never created a ledger for.
			s.logg.Warn(s.logg.WithField(ctx, "charge_ref", chargeRef), "refund event for unknown order")
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) handleTransferCreated(ctx context.Context, event *stripe.Event) error {
	var transfer stripe.Transfer
	if err := json.Unmarshal(event.Data.Raw, &transfer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode transfer event")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transfer_ref": transfer.ID,
		"amount_cents": transfer.Amount,
	})
	s.logg.Info(logCtx, "processor transfer confirmed")
	return nil
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["order_id"]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id metadata missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id metadata")
	}
	return id, nil
}

// classifyAccount maps a connected account's capabilities to the
// vendor readiness states settlement relies on.
func classifyAccount(account *stripe.Account) enums.ConnectAccountStatus {
	switch {
	case account.ChargesEnabled && account.PayoutsEnabled:
		return enums.ConnectAccountStatusActive
	case account.DetailsSubmitted:
		return enums.ConnectAccountStatusRestricted
	default:
		return enums.ConnectAccountStatusPending
	}
}
