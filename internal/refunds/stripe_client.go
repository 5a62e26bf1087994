package refunds

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/vendora-hq/vendora-backend/pkg/stripe"
)

// RefundClient creates processor-level refunds against a charge.
type RefundClient interface {
	CreateRefund(ctx context.Context, chargeRef string, amountCents *int64, reason string) (string, error)
}

type stripeRefundClient struct{}

// NewRefundClient wraps the initialized Stripe client for refund use.
func NewRefundClient(api *pkgstripe.Client) RefundClient {
	if api == nil {
		return nil
	}
	return &stripeRefundClient{}
}

func (c *stripeRefundClient) CreateRefund(ctx context.Context, chargeRef string, amountCents *int64, reason string) (string, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(chargeRef),
	}
	params.Context = ctx
	if amountCents != nil {
		params.Amount = stripe.Int64(*amountCents)
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	created, err := refund.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
