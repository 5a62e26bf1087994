package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/vendora-backend/internal/catalog"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
)

// defaultRate is the platform-wide fallback when no other level matches.
var defaultRate = decimal.NewFromInt(10)

// Resolver determines the commission rate for a product by walking a
// prioritized fallback chain. Only a missing product is an error;
// missing category or vendor relations fall through to the next level.
type Resolver interface {
	ResolveRate(ctx context.Context, productID uuid.UUID) (*RateResolution, error)
	ResolveRateForProduct(ctx context.Context, product *models.Product) (*RateResolution, error)
}

type resolver struct {
	catalog catalog.Service
	rules   Repository
	now     func() time.Time
}

// NewResolver wires a rate resolver over the catalog and rule stores.
func NewResolver(catalogSvc catalog.Service, rules Repository) (Resolver, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rules repository required")
	}
	return &resolver{
		catalog: catalogSvc,
		rules:   rules,
		now:     time.Now,
	}, nil
}

func (r *resolver) ResolveRate(ctx context.Context, productID uuid.UUID) (*RateResolution, error) {
	product, err := r.catalog.GetProductWithVendorAndCategory(ctx, productID)
	if err != nil {
		return nil, err
	}
	return r.ResolveRateForProduct(ctx, product)
}

// ResolveRateForProduct resolves against an already-loaded product so
// order creation can reuse the row it fetched inside its transaction.
func (r *resolver) ResolveRateForProduct(ctx context.Context, product *models.Product) (*RateResolution, error) {
	if product == nil {
		return nil, fmt.Errorf("product required")
	}

	levels := []func(context.Context, *models.Product) (*RateResolution, error){
		r.fromProductRule,
		r.fromProductOverride,
		r.fromCategory,
		r.fromVendorRate,
		r.fromVendorTier,
	}
	for _, level := range levels {
		resolution, err := level(ctx, product)
		if err != nil {
			return nil, err
		}
		if resolution != nil {
			return resolution, nil
		}
	}

	return &RateResolution{
		Rate:   defaultRate,
		Source: enums.CommissionSourceDefault,
		Reason: "platform default rate",
	}, nil
}

func (r *resolver) fromProductRule(ctx context.Context, product *models.Product) (*RateResolution, error) {
	productID := product.ID
	rule, err := r.rules.FindActiveRule(ctx, enums.RuleAppliesToProduct, &productID, r.now())
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}
	return &RateResolution{
		Rate:   rule.Rate,
		Source: enums.CommissionSourceProductRule,
		Reason: rule.Reason,
	}, nil
}

func (r *resolver) fromProductOverride(_ context.Context, product *models.Product) (*RateResolution, error) {
	if product.CommissionOverride == nil {
		return nil, nil
	}
	return &RateResolution{
		Rate:   *product.CommissionOverride,
		Source: enums.CommissionSourceProductOverride,
		Reason: "product commission override",
	}, nil
}

func (r *resolver) fromCategory(_ context.Context, product *models.Product) (*RateResolution, error) {
	if product.Category == nil || product.Category.CommissionRate == nil {
		return nil, nil
	}
	return &RateResolution{
		Rate:   *product.Category.CommissionRate,
		Source: enums.CommissionSourceCategory,
		Reason: fmt.Sprintf("category rate (%s)", product.Category.Name),
	}, nil
}

func (r *resolver) fromVendorRate(_ context.Context, product *models.Product) (*RateResolution, error) {
	if product.Vendor == nil || product.Vendor.CommissionRate == nil {
		return nil, nil
	}
	return &RateResolution{
		Rate:   *product.Vendor.CommissionRate,
		Source: enums.CommissionSourceVendor,
		Reason: "vendor negotiated rate",
	}, nil
}

func (r *resolver) fromVendorTier(_ context.Context, product *models.Product) (*RateResolution, error) {
	if product.Vendor == nil {
		return nil, nil
	}
	tier := product.Vendor.CommissionTier
	return &RateResolution{
		Rate:   tier.DefaultCommissionRate(),
		Source: enums.CommissionSourceVendorTier,
		Reason: fmt.Sprintf("%s tier default", tier),
	}, nil
}
