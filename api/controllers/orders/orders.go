package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/api/responses"
	"github.com/vendora-hq/vendora-backend/api/validators"
	internalorders "github.com/vendora-hq/vendora-backend/internal/orders"
	"github.com/vendora-hq/vendora-backend/internal/refunds"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

func fail(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	responses.WriteError(r.Context(), logg, w, err)
}

func serviceDown(name string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// Create places a new order, pricing every line and reserving stock.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			fail(w, r, logg, serviceDown("orders"))
			return
		}
		var input internalorders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			fail(w, r, logg, err)
			return
		}
		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns one order with its line items.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			fail(w, r, logg, serviceDown("orders"))
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type confirmRequest struct {
	ChargeRef string `json:"charge_ref" validate:"required,max=255"`
}

// Confirm marks an order paid and books its payout ledger rows.
// Used by back-office tooling when the payment confirmation arrives
// out of band instead of through the Stripe webhook.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			fail(w, r, logg, serviceDown("orders"))
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		var req confirmRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			fail(w, r, logg, err)
			return
		}
		order, outcomes, err := svc.ConfirmPayment(r.Context(), orderID, req.ChargeRef)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order":       order,
			"settlements": outcomes,
		})
	}
}

// Cancel voids an unpaid order and restores reserved stock.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			fail(w, r, logg, serviceDown("orders"))
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		order, err := svc.CancelOrder(r.Context(), orderID)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type refundRequest struct {
	AmountCents *int64 `json:"amount_cents" validate:"omitempty,gt=0"`
	Reason      string `json:"reason" validate:"omitempty,max=500"`
}

// Refund issues a processor refund for a paid order and reverses any
// completed vendor transfers.
func Refund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			fail(w, r, logg, serviceDown("refunds"))
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		var req refundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			fail(w, r, logg, err)
			return
		}
		result, err := svc.RefundOrder(r.Context(), orderID, req.AmountCents, req.Reason)
		if err != nil {
			fail(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
