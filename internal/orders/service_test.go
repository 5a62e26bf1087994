package orders

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/internal/affiliates"
	"github.com/vendora-hq/vendora-backend/internal/commission"
	"github.com/vendora-hq/vendora-backend/internal/settlement"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type fakeRepo struct {
	orders  map[uuid.UUID]*models.Order
	created []*models.Order
	updates map[uuid.UUID][]map[string]any
	next    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[uuid.UUID]*models.Order{}, updates: map[uuid.UUID][]map[string]any{}, next: 1000}
}

func (f *fakeRepo) WithTx(_ *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = order
	f.created = append(f.created, order)
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := f.orders[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByIDWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return f.FindByID(ctx, orderID)
}

func (f *fakeRepo) FindByChargeRef(_ context.Context, chargeRef string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.ChargeRef != nil && *order.ChargeRef == chargeRef {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) Update(_ context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.updates[orderID] = append(f.updates[orderID], updates)
	return nil
}

func (f *fakeRepo) NextOrderNumber(_ context.Context) (int64, error) {
	f.next++
	return f.next, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fakeCatalog struct {
	products map[uuid.UUID]*models.Product
	reserved map[uuid.UUID]int
	restored map[uuid.UUID]int
	reserve  func(productID uuid.UUID, qty int) error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[uuid.UUID]*models.Product{},
		reserved: map[uuid.UUID]int{},
		restored: map[uuid.UUID]int{},
	}
}

func (f *fakeCatalog) GetProductWithVendorAndCategory(_ context.Context, productID uuid.UUID) (*models.Product, error) {
	if product, ok := f.products[productID]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeCatalog) GetVendor(_ context.Context, _ uuid.UUID) (*models.Vendor, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
}

func (f *fakeCatalog) ReserveStock(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	if f.reserve != nil {
		if err := f.reserve(productID, qty); err != nil {
			return err
		}
	}
	f.reserved[productID] += qty
	return nil
}

func (f *fakeCatalog) RestoreStock(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	f.restored[productID] += qty
	return nil
}

func (f *fakeCatalog) SyncConnectStatus(_ context.Context, _ string, _ enums.ConnectAccountStatus) error {
	return nil
}

type fakeCalculator struct{}

// Ten percent flat, so expectations stay easy to read.
func (fakeCalculator) CalculateLineForProduct(_ context.Context, product *models.Product, amountCents int64, affiliate *models.Affiliate) (*commission.LineBreakdown, error) {
	platform := amountCents / 10
	breakdown := &commission.LineBreakdown{
		ProductID:               product.ID,
		VendorID:                product.VendorID,
		AmountCents:             amountCents,
		PlatformCommissionCents: platform,
		VendorPayoutCents:       amountCents - platform,
		Rate:                    decimal.NewFromInt(10),
		Source:                  enums.CommissionSourceDefault,
	}
	if affiliate != nil {
		breakdown.AffiliateCommissionCents = amountCents / 20
	}
	return breakdown, nil
}

func (c fakeCalculator) CalculateLine(_ context.Context, _ uuid.UUID, _ int64, _ string) (*commission.LineBreakdown, error) {
	return nil, errors.New("not used")
}

func (c fakeCalculator) CalculateOrder(_ context.Context, _ []commission.LineInput, _ string) (*commission.OrderSummary, error) {
	return nil, errors.New("not used")
}

type fakeAffiliates struct {
	byCode   map[string]*models.Affiliate
	byID     map[uuid.UUID]*models.Affiliate
	recorded []affiliates.RecordCommissionInput
}

func newFakeAffiliates() *fakeAffiliates {
	return &fakeAffiliates{byCode: map[string]*models.Affiliate{}, byID: map[uuid.UUID]*models.Affiliate{}}
}

func (f *fakeAffiliates) GetActiveByTrackingCode(_ context.Context, code string) (*models.Affiliate, error) {
	if affiliate, ok := f.byCode[code]; ok {
		return affiliate, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
}

func (f *fakeAffiliates) GetByID(_ context.Context, id uuid.UUID) (*models.Affiliate, error) {
	if affiliate, ok := f.byID[id]; ok {
		return affiliate, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
}

func (f *fakeAffiliates) RecordCommission(_ context.Context, _ *gorm.DB, input affiliates.RecordCommissionInput) (*models.AffiliateCommission, error) {
	f.recorded = append(f.recorded, input)
	return &models.AffiliateCommission{AffiliateID: input.AffiliateID, OrderID: input.OrderID, AmountCents: input.AmountCents}, nil
}

type ledgerRow struct {
	vendorID    uuid.UUID
	orderID     uuid.UUID
	amountCents int64
	currency    enums.Currency
}

type fakeLedger struct {
	rows []ledgerRow
}

func (f *fakeLedger) RecordPendingPayout(_ context.Context, _ *gorm.DB, vendorID, orderID uuid.UUID, amountCents int64, currency enums.Currency) (*models.VendorPayout, error) {
	f.rows = append(f.rows, ledgerRow{vendorID: vendorID, orderID: orderID, amountCents: amountCents, currency: currency})
	return &models.VendorPayout{ID: uuid.New(), VendorID: vendorID, OrderID: orderID, AmountCents: amountCents, Currency: currency}, nil
}

func (f *fakeLedger) MarkCompleted(_ context.Context, _ uuid.UUID, _ string) error  { return nil }
func (f *fakeLedger) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error     { return nil }
func (f *fakeLedger) MarkReversed(_ context.Context, _ uuid.UUID, _ string) error   { return nil }
func (f *fakeLedger) MarkCompletedBatch(_ context.Context, _ []uuid.UUID, _ string) error {
	return nil
}
func (f *fakeLedger) RetryFailed(_ context.Context, _ uuid.UUID) (*models.VendorPayout, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
}
func (f *fakeLedger) Claim(_ context.Context, _ []uuid.UUID) error { return nil }
func (f *fakeLedger) GetPayout(_ context.Context, _ uuid.UUID) (*models.VendorPayout, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
}
func (f *fakeLedger) GetPendingPayoutsByVendor(_ context.Context, _ uuid.UUID) ([]models.VendorPayout, error) {
	return nil, nil
}
func (f *fakeLedger) ListPendingVendorIDs(_ context.Context) ([]uuid.UUID, error) { return nil, nil }
func (f *fakeLedger) ListByOrder(_ context.Context, _ uuid.UUID) ([]models.VendorPayout, error) {
	return nil, nil
}

type fakeSettlement struct {
	settledOrders []uuid.UUID
	settleFn      func(orderID uuid.UUID) ([]settlement.VendorOutcome, error)
}

func (f *fakeSettlement) SettleOrder(_ context.Context, orderID uuid.UUID) ([]settlement.VendorOutcome, error) {
	f.settledOrders = append(f.settledOrders, orderID)
	if f.settleFn != nil {
		return f.settleFn(orderID)
	}
	return []settlement.VendorOutcome{}, nil
}

func (f *fakeSettlement) ProcessPendingPayouts(_ context.Context) (*settlement.SweepResult, error) {
	return &settlement.SweepResult{}, nil
}

type fixture struct {
	repo       *fakeRepo
	catalog    *fakeCatalog
	affiliates *fakeAffiliates
	ledger     *fakeLedger
	settlement *fakeSettlement
	svc        Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:       newFakeRepo(),
		catalog:    newFakeCatalog(),
		affiliates: newFakeAffiliates(),
		ledger:     &fakeLedger{},
		settlement: &fakeSettlement{},
	}
	svc, err := NewService(ServiceParams{
		Repo:       f.repo,
		Tx:         fakeTx{},
		Catalog:    f.catalog,
		Calculator: fakeCalculator{},
		Affiliates: f.affiliates,
		Ledger:     f.ledger,
		Settlement: f.settlement,
		Logger:     logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("orders service setup: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) addProduct(priceCents int64) *models.Product {
	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   uuid.New(),
		Name:       "widget",
		PriceCents: priceCents,
		StockQty:   100,
		Active:     true,
	}
	f.catalog.products[product.ID] = product
	return product
}

func TestCreateOrder_SnapshotsLines(t *testing.T) {
	f := newFixture(t)
	cheap := f.addProduct(1500)
	dear := f.addProduct(10000)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerRef: "buyer-1",
		Lines: []OrderLineInput{
			{ProductID: cheap.ID, Quantity: 2},
			{ProductID: dear.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.TotalCents != 13000 {
		t.Fatalf("expected total 13000, got %d", order.TotalCents)
	}
	if order.Currency != enums.CurrencyEUR {
		t.Fatalf("expected EUR default, got %s", order.Currency)
	}
	if order.PaymentStatus != "" && order.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("new orders must be unpaid, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	first := order.Items[0]
	if first.UnitPriceCents != 1500 || first.TotalCents != 3000 {
		t.Fatalf("line snapshot wrong: %+v", first)
	}
	if first.PlatformCommissionCents+first.VendorPayoutCents != first.TotalCents {
		t.Fatal("commission split must sum to the line total")
	}
	if f.catalog.reserved[cheap.ID] != 2 || f.catalog.reserved[dear.ID] != 1 {
		t.Fatalf("expected stock reserved per line, got %v", f.catalog.reserved)
	}
	if len(f.ledger.rows) != 0 {
		t.Fatal("no ledger rows before payment confirmation")
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(1000)
	ctx := context.Background()

	if _, err := f.svc.CreateOrder(ctx, CreateOrderInput{BuyerRef: "b", Lines: nil}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty lines, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, CreateOrderInput{Lines: []OrderLineInput{{ProductID: product.ID, Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing buyer ref, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, CreateOrderInput{BuyerRef: "b", Currency: "JPY", Lines: []OrderLineInput{{ProductID: product.ID, Quantity: 1}}}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unsupported currency, got %v", err)
	}
	if _, err := f.svc.CreateOrder(ctx, CreateOrderInput{BuyerRef: "b", Lines: []OrderLineInput{{ProductID: product.ID, Quantity: 0}}}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestCreateOrder_UnknownAffiliateCodeTolerated(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(1000)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerRef:      "buyer-1",
		AffiliateCode: "NOBODY",
		Lines:         []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unknown affiliate code must not fail the order: %v", err)
	}
	if order.AffiliateID != nil {
		t.Fatal("order must be unattributed")
	}
	if order.Items[0].AffiliateCommissionCents != 0 {
		t.Fatal("no affiliate cut without attribution")
	}
}

func TestCreateOrder_AttributesAffiliate(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(1000)
	affiliate := &models.Affiliate{ID: uuid.New(), TrackingCode: "PARTNER5", Rate: decimal.NewFromInt(5), Active: true}
	f.affiliates.byCode["PARTNER5"] = affiliate
	f.affiliates.byID[affiliate.ID] = affiliate

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerRef:      "buyer-1",
		AffiliateCode: "PARTNER5",
		Lines:         []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.AffiliateID == nil || *order.AffiliateID != affiliate.ID {
		t.Fatal("expected affiliate attribution on the order")
	}
	if order.Items[0].AffiliateCommissionCents == 0 {
		t.Fatal("expected affiliate cut on the line")
	}
}

func TestCreateOrder_StockFailureAborts(t *testing.T) {
	f := newFixture(t)
	inStock := f.addProduct(1000)
	outOfStock := f.addProduct(2000)
	f.catalog.reserve = func(productID uuid.UUID, _ int) error {
		if productID == outOfStock.ID {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}
		return nil
	}

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerRef: "buyer-1",
		Lines: []OrderLineInput{
			{ProductID: inStock.ID, Quantity: 1},
			{ProductID: outOfStock.ID, Quantity: 1},
		},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Fatal("a failed line must abort the whole order")
	}
}

func confirmableOrder(f *fixture, vendorA, vendorB uuid.UUID, affiliateID *uuid.UUID) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   2001,
		BuyerRef:      "buyer-1",
		Currency:      enums.CurrencyUSD,
		TotalCents:    15000,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		AffiliateID:   affiliateID,
		Items: []models.OrderItem{
			{VendorID: vendorA, TotalCents: 5000, PlatformCommissionCents: 500, VendorPayoutCents: 4500, AffiliateCommissionCents: 100},
			{VendorID: vendorA, TotalCents: 4000, PlatformCommissionCents: 400, VendorPayoutCents: 3600, AffiliateCommissionCents: 80},
			{VendorID: vendorB, TotalCents: 6000, PlatformCommissionCents: 600, VendorPayoutCents: 5400, AffiliateCommissionCents: 120},
		},
	}
	f.repo.orders[order.ID] = order
	return order
}

func TestConfirmPayment_FansOutLedgerRows(t *testing.T) {
	f := newFixture(t)
	vendorA, vendorB := uuid.New(), uuid.New()
	order := confirmableOrder(f, vendorA, vendorB, nil)

	confirmed, outcomes, err := f.svc.ConfirmPayment(context.Background(), order.ID, "ch_123")
	if err != nil {
		t.Fatalf("ConfirmPayment error: %v", err)
	}
	if confirmed.PaymentStatus != enums.PaymentStatusPaid || confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order not marked paid: %+v", confirmed)
	}
	if confirmed.ChargeRef == nil || *confirmed.ChargeRef != "ch_123" {
		t.Fatal("charge ref must be recorded")
	}

	if len(f.ledger.rows) != 2 {
		t.Fatalf("expected one ledger row per vendor, got %d", len(f.ledger.rows))
	}
	byVendor := map[uuid.UUID]int64{}
	for _, row := range f.ledger.rows {
		byVendor[row.vendorID] = row.amountCents
		if row.currency != enums.CurrencyUSD {
			t.Fatalf("ledger rows must carry the order currency, got %s", row.currency)
		}
	}
	if byVendor[vendorA] != 8100 || byVendor[vendorB] != 5400 {
		t.Fatalf("vendor totals must aggregate items, got %v", byVendor)
	}

	if len(f.settlement.settledOrders) != 1 || f.settlement.settledOrders[0] != order.ID {
		t.Fatal("expected immediate settlement attempt")
	}
	if outcomes == nil {
		t.Fatal("expected settlement outcomes")
	}
}

func TestConfirmPayment_RecordsAffiliateCommission(t *testing.T) {
	f := newFixture(t)
	affiliate := &models.Affiliate{ID: uuid.New(), Rate: decimal.NewFromInt(2), Active: true}
	f.affiliates.byID[affiliate.ID] = affiliate
	affiliateID := affiliate.ID
	order := confirmableOrder(f, uuid.New(), uuid.New(), &affiliateID)

	if _, _, err := f.svc.ConfirmPayment(context.Background(), order.ID, "ch_123"); err != nil {
		t.Fatalf("ConfirmPayment error: %v", err)
	}
	if len(f.affiliates.recorded) != 1 {
		t.Fatalf("expected one affiliate commission, got %d", len(f.affiliates.recorded))
	}
	recorded := f.affiliates.recorded[0]
	if recorded.AmountCents != 300 {
		t.Fatalf("expected affiliate total 300, got %d", recorded.AmountCents)
	}
	if recorded.OrderID != order.ID || recorded.AffiliateID != affiliate.ID {
		t.Fatalf("unexpected commission record: %+v", recorded)
	}
}

func TestConfirmPayment_AlreadyPaidIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := confirmableOrder(f, uuid.New(), uuid.New(), nil)
	order.PaymentStatus = enums.PaymentStatusPaid
	order.Status = enums.OrderStatusConfirmed

	confirmed, outcomes, err := f.svc.ConfirmPayment(context.Background(), order.ID, "ch_replay")
	if err != nil {
		t.Fatalf("replayed confirmation must succeed: %v", err)
	}
	if confirmed.ID != order.ID {
		t.Fatal("expected the existing order back")
	}
	if outcomes != nil {
		t.Fatal("no settlement on replay")
	}
	if len(f.ledger.rows) != 0 {
		t.Fatal("no duplicate ledger rows on replay")
	}
	if len(f.settlement.settledOrders) != 0 {
		t.Fatal("no settlement attempt on replay")
	}
}

func TestConfirmPayment_StateConflicts(t *testing.T) {
	f := newFixture(t)

	cancelled := confirmableOrder(f, uuid.New(), uuid.New(), nil)
	cancelled.Status = enums.OrderStatusCancelled
	if _, _, err := f.svc.ConfirmPayment(context.Background(), cancelled.ID, "ch_1"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("cancelled orders cannot be confirmed, got %v", err)
	}

	refunded := confirmableOrder(f, uuid.New(), uuid.New(), nil)
	refunded.PaymentStatus = enums.PaymentStatusRefunded
	if _, _, err := f.svc.ConfirmPayment(context.Background(), refunded.ID, "ch_2"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("refunded orders cannot be confirmed, got %v", err)
	}
}

func TestConfirmPayment_Validation(t *testing.T) {
	f := newFixture(t)
	order := confirmableOrder(f, uuid.New(), uuid.New(), nil)

	if _, _, err := f.svc.ConfirmPayment(context.Background(), uuid.Nil, "ch_1"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for nil order, got %v", err)
	}
	if _, _, err := f.svc.ConfirmPayment(context.Background(), order.ID, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty charge ref, got %v", err)
	}
	if _, _, err := f.svc.ConfirmPayment(context.Background(), uuid.New(), "ch_1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown order, got %v", err)
	}
}

func TestConfirmPayment_SettlementFailureDoesNotUnwind(t *testing.T) {
	f := newFixture(t)
	order := confirmableOrder(f, uuid.New(), uuid.New(), nil)
	f.settlement.settleFn = func(_ uuid.UUID) ([]settlement.VendorOutcome, error) {
		return nil, errors.New("processor outage")
	}

	confirmed, outcomes, err := f.svc.ConfirmPayment(context.Background(), order.ID, "ch_123")
	if err != nil {
		t.Fatalf("settlement failure must not fail the confirmation: %v", err)
	}
	if confirmed.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatal("order must stay confirmed")
	}
	if outcomes != nil {
		t.Fatal("no outcomes when settlement failed; rows stay pending for the sweep")
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	f := newFixture(t)
	productID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Items: []models.OrderItem{
			{ProductID: productID, VendorID: uuid.New(), Quantity: 3, TotalCents: 3000},
		},
	}
	f.repo.orders[order.ID] = order

	cancelled, err := f.svc.CancelOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("order not cancelled: %+v", cancelled)
	}
	if f.catalog.restored[productID] != 3 {
		t.Fatalf("expected reserved stock restored, got %v", f.catalog.restored)
	}
}

func TestCancelOrder_AlreadyCancelledIsNoOp(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusCancelled, PaymentStatus: enums.PaymentStatusUnpaid}
	f.repo.orders[order.ID] = order

	if _, err := f.svc.CancelOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("cancelling twice must succeed: %v", err)
	}
	if len(f.repo.updates[order.ID]) != 0 {
		t.Fatal("no writes expected for an already-cancelled order")
	}
}

func TestCancelOrder_RejectsPaidOrder(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid}
	f.repo.orders[order.ID] = order

	if _, err := f.svc.CancelOrder(context.Background(), order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("paid orders route through refunds, got %v", err)
	}
}

func TestGetOrderByChargeRef(t *testing.T) {
	f := newFixture(t)
	chargeRef := "ch_lookup"
	order := &models.Order{ID: uuid.New(), ChargeRef: &chargeRef}
	f.repo.orders[order.ID] = order

	found, err := f.svc.GetOrderByChargeRef(context.Background(), "ch_lookup")
	if err != nil {
		t.Fatalf("GetOrderByChargeRef error: %v", err)
	}
	if found.ID != order.ID {
		t.Fatal("wrong order returned")
	}
	if _, err := f.svc.GetOrderByChargeRef(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty charge ref, got %v", err)
	}
	if _, err := f.svc.GetOrderByChargeRef(context.Background(), "ch_unknown"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
