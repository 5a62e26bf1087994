package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/internal/affiliates"
	"github.com/vendora-hq/vendora-backend/internal/catalog"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator produces exact platform/vendor/affiliate splits. Pure
// computation over resolved rates: persistence is the caller's job.
type Calculator interface {
	CalculateLine(ctx context.Context, productID uuid.UUID, amountCents int64, affiliateCode string) (*LineBreakdown, error)
	CalculateOrder(ctx context.Context, lines []LineInput, affiliateCode string) (*OrderSummary, error)
	CalculateLineForProduct(ctx context.Context, product *models.Product, amountCents int64, affiliate *models.Affiliate) (*LineBreakdown, error)
}

type calculator struct {
	catalog    catalog.Service
	resolver   Resolver
	affiliates affiliates.Service
}

// NewCalculator wires a commission calculator.
func NewCalculator(catalogSvc catalog.Service, resolver Resolver, affiliateSvc affiliates.Service) (Calculator, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if affiliateSvc == nil {
		return nil, fmt.Errorf("affiliates service required")
	}
	return &calculator{
		catalog:    catalogSvc,
		resolver:   resolver,
		affiliates: affiliateSvc,
	}, nil
}

// SplitCents applies a percentage rate to an amount of minor units,
// rounding half up. The vendor share is always the exact remainder so
// the two halves sum back to the amount for every rate in [0,100].
func SplitCents(amountCents int64, rate decimal.Decimal) (platformCents, vendorCents int64) {
	amount := decimal.NewFromInt(amountCents)
	platformCents = amount.Mul(rate).Div(oneHundred).Round(0).IntPart()
	vendorCents = amountCents - platformCents
	return platformCents, vendorCents
}

func (c *calculator) CalculateLine(ctx context.Context, productID uuid.UUID, amountCents int64, affiliateCode string) (*LineBreakdown, error) {
	product, err := c.catalog.GetProductWithVendorAndCategory(ctx, productID)
	if err != nil {
		return nil, err
	}
	affiliate, err := c.lookupAffiliate(ctx, affiliateCode)
	if err != nil {
		return nil, err
	}
	return c.CalculateLineForProduct(ctx, product, amountCents, affiliate)
}

// CalculateLineForProduct computes the split against an already-loaded
// product and affiliate, for callers batching lookups in a transaction.
func (c *calculator) CalculateLineForProduct(ctx context.Context, product *models.Product, amountCents int64, affiliate *models.Affiliate) (*LineBreakdown, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	resolution, err := c.resolver.ResolveRateForProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	platformCents, vendorCents := SplitCents(amountCents, resolution.Rate)

	var affiliateCents int64
	if affiliate != nil {
		affiliateCents, _ = SplitCents(amountCents, affiliate.Rate)
	}

	return &LineBreakdown{
		ProductID:                product.ID,
		VendorID:                 product.VendorID,
		AmountCents:              amountCents,
		PlatformCommissionCents:  platformCents,
		VendorPayoutCents:        vendorCents,
		AffiliateCommissionCents: affiliateCents,
		Rate:                     resolution.Rate,
		Source:                   resolution.Source,
		Reason:                   resolution.Reason,
	}, nil
}

func (c *calculator) CalculateOrder(ctx context.Context, lines []LineInput, affiliateCode string) (*OrderSummary, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	affiliate, err := c.lookupAffiliate(ctx, affiliateCode)
	if err != nil {
		return nil, err
	}

	summary := &OrderSummary{
		Lines:         make([]LineBreakdown, 0, len(lines)),
		VendorPayouts: make(map[uuid.UUID]int64),
	}
	for _, line := range lines {
		product, err := c.catalog.GetProductWithVendorAndCategory(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		breakdown, err := c.CalculateLineForProduct(ctx, product, line.AmountCents, affiliate)
		if err != nil {
			return nil, err
		}
		summary.Lines = append(summary.Lines, *breakdown)
		summary.TotalCents += breakdown.AmountCents
		summary.PlatformCommissionCents += breakdown.PlatformCommissionCents
		summary.AffiliateCommissionCents += breakdown.AffiliateCommissionCents
		summary.VendorPayouts[breakdown.VendorID] += breakdown.VendorPayoutCents
	}
	return summary, nil
}

// lookupAffiliate resolves a tracking code to an active affiliate. An
// empty code means the order is unattributed; an unknown or inactive
// code is treated the same rather than failing the checkout.
func (c *calculator) lookupAffiliate(ctx context.Context, code string) (*models.Affiliate, error) {
	if code == "" {
		return nil, nil
	}
	affiliate, err := c.affiliates.GetActiveByTrackingCode(ctx, code)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return affiliate, nil
}
