package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/internal/affiliates"
	"github.com/vendora-hq/vendora-backend/internal/catalog"
	"github.com/vendora-hq/vendora-backend/internal/commission"
	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order lifecycle: creation with commission
// snapshots, payment confirmation with ledger fan-out, cancellation.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, chargeRef string) (*models.Order, []settlement.VendorOutcome, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrderByChargeRef(ctx context.Context, chargeRef string) (*models.Order, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	catalog    catalog.Service
	calculator commission.Calculator
	affiliates affiliates.Service
	ledger     ledger.Service
	settlement settlement.Service
	logg       *logger.Logger
	validate   *validator.Validate
}

// ServiceParams carries order service dependencies.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Catalog    catalog.Service
	Calculator commission.Calculator
	Affiliates affiliates.Service
	Ledger     ledger.Service
	Settlement settlement.Service
	Logger     *logger.Logger
}

// NewService wires an order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("commission calculator required")
	}
	if params.Affiliates == nil {
		return nil, fmt.Errorf("affiliates service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		catalog:    params.Catalog,
		calculator: params.Calculator,
		affiliates: params.Affiliates,
		ledger:     params.Ledger,
		settlement: params.Settlement,
		logg:       params.Logger,
		validate:   validator.New(),
	}, nil
}

// CreateOrder snapshots prices and commission splits for every line
// inside one transaction; stock reservation, items, and the order row
// commit together or not at all. No ledger rows exist yet - those are
// created at payment confirmation.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order input")
	}

	currency := enums.CurrencyEUR
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		currency = parsed
	}

	var affiliate *models.Affiliate
	if input.AffiliateCode != "" {
		found, err := s.affiliates.GetActiveByTrackingCode(ctx, input.AffiliateCode)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		affiliate = found
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		var totalCents int64
		items := make([]models.OrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			product, err := s.catalog.GetProductWithVendorAndCategory(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := s.catalog.ReserveStock(ctx, tx, product.ID, line.Quantity); err != nil {
				return err
			}

			lineTotal := product.PriceCents * int64(line.Quantity)
			breakdown, err := s.calculator.CalculateLineForProduct(ctx, product, lineTotal, affiliate)
			if err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ProductID:                product.ID,
				VendorID:                 product.VendorID,
				ProductName:              product.Name,
				Quantity:                 line.Quantity,
				UnitPriceCents:           product.PriceCents,
				TotalCents:               lineTotal,
				PlatformCommissionCents:  breakdown.PlatformCommissionCents,
				VendorPayoutCents:        breakdown.VendorPayoutCents,
				AffiliateCommissionCents: breakdown.AffiliateCommissionCents,
				CommissionRate:           breakdown.Rate,
				CommissionSource:         breakdown.Source,
				CommissionReason:         breakdown.Reason,
			})
			totalCents += lineTotal
		}

		order = &models.Order{
			OrderNumber: number,
			BuyerRef:    input.BuyerRef,
			Currency:    currency,
			TotalCents:  totalCents,
			Items:       items,
		}
		if affiliate != nil {
			affiliateID := affiliate.ID
			order.AffiliateID = &affiliateID
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

// ConfirmPayment marks the order paid, creates the per-vendor ledger
// rows and the affiliate commission in one transaction, then asks the
// settlement engine to attempt immediate transfers. Settlement
// failures never unwind the confirmation.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, chargeRef string) (*models.Order, []settlement.VendorOutcome, error) {
	if orderID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if chargeRef == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}

	var order *models.Order
	alreadyPaid := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByIDWithItems(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded

		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}
		if order.PaymentStatus == enums.PaymentStatusRefunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is refunded")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			alreadyPaid = true
			return nil
		}

		now := time.Now().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"status":         enums.OrderStatusConfirmed,
			"charge_ref":     chargeRef,
			"confirmed_at":   now,
			"updated_at":     now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		order.Status = enums.OrderStatusConfirmed
		order.ChargeRef = &chargeRef
		order.ConfirmedAt = &now

		vendorTotals := make(map[uuid.UUID]int64)
		vendorOrder := make([]uuid.UUID, 0)
		var affiliateTotal int64
		for _, item := range order.Items {
			if _, seen := vendorTotals[item.VendorID]; !seen {
				vendorOrder = append(vendorOrder, item.VendorID)
			}
			vendorTotals[item.VendorID] += item.VendorPayoutCents
			affiliateTotal += item.AffiliateCommissionCents
		}
		for _, vendorID := range vendorOrder {
			if _, err := s.ledger.RecordPendingPayout(ctx, tx, vendorID, order.ID, vendorTotals[vendorID], order.Currency); err != nil {
				return err
			}
		}

		if order.AffiliateID != nil && affiliateTotal > 0 {
			affiliate, err := s.affiliates.GetByID(ctx, *order.AffiliateID)
			if err != nil {
				return err
			}
			if _, err := s.affiliates.RecordCommission(ctx, tx, affiliates.RecordCommissionInput{
				AffiliateID: affiliate.ID,
				OrderID:     order.ID,
				AmountCents: affiliateTotal,
				Rate:        affiliate.Rate,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if alreadyPaid {
		return order, nil, nil
	}

	outcomes, err := s.settlement.SettleOrder(ctx, order.ID)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "settlement after confirmation failed", err)
		return order, nil, nil
	}
	return order, outcomes, nil
}

// CancelOrder releases reserved stock and closes the order. Only
// unpaid orders can be cancelled here - paid orders route through the
// refund coordinator instead.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByIDWithItems(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded

		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if order.PaymentStatus != enums.PaymentStatusUnpaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders must be refunded, not cancelled")
		}

		for _, item := range order.Items {
			if err := s.catalog.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order cancelled")
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetOrderByChargeRef(ctx context.Context, chargeRef string) (*models.Order, error) {
	if chargeRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}
	order, err := s.repo.FindByChargeRef(ctx, chargeRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
