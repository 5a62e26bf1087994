package settlement

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/transfer"
	"github.com/stripe/stripe-go/v84/transferreversal"

	pkgstripe "github.com/vendora-hq/vendora-backend/pkg/stripe"
)

// SplitTransferInput describes one transfer to a vendor's connected
// account. SourceCharge is empty for consolidated sweep transfers,
// which draw from the platform balance instead of a single charge.
type SplitTransferInput struct {
	DestinationAccount string
	AmountCents        int64
	Currency           string
	SourceCharge       string
	IdempotencyKey     string
	OrderRef           string
}

// AccountStatus reports a connected account's processor readiness.
type AccountStatus struct {
	ChargesEnabled bool
	PayoutsEnabled bool
}

// Processor exposes the subset of payment-processor operations the
// settlement engine needs, so services can be tested against fakes.
type Processor interface {
	CreateSplitTransfer(ctx context.Context, input SplitTransferInput) (string, error)
	ReverseTransfer(ctx context.Context, transferRef string, amountCents int64) (string, error)
	GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
}

type stripeProcessor struct{}

// NewProcessor wraps the initialized Stripe client for settlement use.
func NewProcessor(api *pkgstripe.Client) Processor {
	if api == nil {
		return nil
	}
	return &stripeProcessor{}
}

func (p *stripeProcessor) CreateSplitTransfer(ctx context.Context, input SplitTransferInput) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(input.AmountCents),
		Currency:    stripe.String(input.Currency),
		Destination: stripe.String(input.DestinationAccount),
	}
	params.Context = ctx
	if input.SourceCharge != "" {
		params.SourceTransaction = stripe.String(input.SourceCharge)
	}
	if input.OrderRef != "" {
		params.TransferGroup = stripe.String(input.OrderRef)
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	created, err := transfer.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (p *stripeProcessor) ReverseTransfer(ctx context.Context, transferRef string, amountCents int64) (string, error) {
	params := &stripe.TransferReversalParams{
		ID:     stripe.String(transferRef),
		Amount: stripe.Int64(amountCents),
	}
	params.Context = ctx

	reversal, err := transferreversal.New(params)
	if err != nil {
		return "", err
	}
	return reversal.ID, nil
}

func (p *stripeProcessor) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return nil, err
	}
	return &AccountStatus{
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}, nil
}
