package commission

import (
	"net/http"

	"github.com/vendora-hq/vendora-backend/api/responses"
	"github.com/vendora-hq/vendora-backend/api/validators"
	internalcommission "github.com/vendora-hq/vendora-backend/internal/commission"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type quoteRequest struct {
	Lines         []internalcommission.LineInput `json:"lines" validate:"required,min=1,dive"`
	AffiliateCode string                         `json:"affiliate_code" validate:"omitempty,max=64"`
}

// Quote prices an order's commission split without persisting anything.
func Quote(calc internalcommission.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "calculator unavailable"))
			return
		}

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := calc.CalculateOrder(r.Context(), req.Lines, req.AffiliateCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ProductRate exposes the resolved commission rate for one product,
// including which tier of the fallback chain produced it.
func ProductRate(resolver internalcommission.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "resolver unavailable"))
			return
		}

		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolution, err := resolver.ResolveRate(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolution)
	}
}
