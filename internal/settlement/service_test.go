package settlement

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/internal/ledger"
	"github.com/vendora-hq/vendora-backend/pkg/config"
	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

type fakeLedger struct {
	payoutsByOrder  []models.VendorPayout
	pendingByVendor map[uuid.UUID][]models.VendorPayout
	pendingVendors  []uuid.UUID

	claimFn func(ctx context.Context, ids []uuid.UUID) error

	completed      map[uuid.UUID]string
	batchRefs      []string
	batchCompleted [][]uuid.UUID
	failed         map[uuid.UUID]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		pendingByVendor: map[uuid.UUID][]models.VendorPayout{},
		completed:       map[uuid.UUID]string{},
		failed:          map[uuid.UUID]string{},
	}
}

func (f *fakeLedger) RecordPendingPayout(_ context.Context, _ *gorm.DB, vendorID, orderID uuid.UUID, amountCents int64, currency enums.Currency) (*models.VendorPayout, error) {
	return &models.VendorPayout{ID: uuid.New(), VendorID: vendorID, OrderID: orderID, AmountCents: amountCents, Currency: currency, Status: enums.PayoutStatusPending}, nil
}

func (f *fakeLedger) MarkCompleted(_ context.Context, payoutID uuid.UUID, transferRef string) error {
	f.completed[payoutID] = transferRef
	return nil
}

func (f *fakeLedger) MarkFailed(_ context.Context, payoutID uuid.UUID, reason string) error {
	f.failed[payoutID] = reason
	return nil
}

func (f *fakeLedger) MarkReversed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeLedger) MarkCompletedBatch(_ context.Context, payoutIDs []uuid.UUID, transferRef string) error {
	f.batchRefs = append(f.batchRefs, transferRef)
	f.batchCompleted = append(f.batchCompleted, payoutIDs)
	return nil
}

func (f *fakeLedger) RetryFailed(_ context.Context, _ uuid.UUID) (*models.VendorPayout, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
}

func (f *fakeLedger) Claim(ctx context.Context, payoutIDs []uuid.UUID) error {
	if f.claimFn != nil {
		return f.claimFn(ctx, payoutIDs)
	}
	return nil
}

func (f *fakeLedger) GetPayout(_ context.Context, _ uuid.UUID) (*models.VendorPayout, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
}

func (f *fakeLedger) GetPendingPayoutsByVendor(_ context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	return f.pendingByVendor[vendorID], nil
}

func (f *fakeLedger) ListPendingVendorIDs(_ context.Context) ([]uuid.UUID, error) {
	return f.pendingVendors, nil
}

func (f *fakeLedger) ListByOrder(_ context.Context, _ uuid.UUID) ([]models.VendorPayout, error) {
	return f.payoutsByOrder, nil
}

var _ ledger.Service = (*fakeLedger)(nil)

type fakeCatalog struct {
	vendors map[uuid.UUID]*models.Vendor
}

func (f *fakeCatalog) GetProductWithVendorAndCategory(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeCatalog) GetVendor(_ context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if vendor, ok := f.vendors[vendorID]; ok {
		return vendor, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
}

func (f *fakeCatalog) ReserveStock(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ int) error {
	return nil
}

func (f *fakeCatalog) RestoreStock(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ int) error {
	return nil
}

func (f *fakeCatalog) SyncConnectStatus(_ context.Context, _ string, _ enums.ConnectAccountStatus) error {
	return nil
}

type fakeOrders struct {
	orders map[uuid.UUID]*models.Order
}

func (f *fakeOrders) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := f.orders[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type transferCall struct {
	input SplitTransferInput
}

type fakeProcessor struct {
	calls       []transferCall
	transferFn  func(ctx context.Context, input SplitTransferInput) (string, error)
	statusFn    func(ctx context.Context, accountID string) (*AccountStatus, error)
	statusCalls []string
}

func (f *fakeProcessor) CreateSplitTransfer(ctx context.Context, input SplitTransferInput) (string, error) {
	f.calls = append(f.calls, transferCall{input: input})
	if f.transferFn != nil {
		return f.transferFn(ctx, input)
	}
	return "tr_test", nil
}

func (f *fakeProcessor) ReverseTransfer(_ context.Context, _ string, _ int64) (string, error) {
	return "trr_test", nil
}

func (f *fakeProcessor) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	f.statusCalls = append(f.statusCalls, accountID)
	if f.statusFn != nil {
		return f.statusFn(ctx, accountID)
	}
	return &AccountStatus{ChargesEnabled: true, PayoutsEnabled: true}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "settlement-test", Output: io.Discard})
}

func strPtr(s string) *string { return &s }

func readyVendor() *models.Vendor {
	return &models.Vendor{
		ID:                   uuid.New(),
		Name:                 "acme",
		ConnectAccountID:     strPtr("acct_ready"),
		ConnectAccountStatus: enums.ConnectAccountStatusActive,
	}
}

type fixture struct {
	ledger    *fakeLedger
	catalog   *fakeCatalog
	orders    *fakeOrders
	processor *fakeProcessor
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:    newFakeLedger(),
		catalog:   &fakeCatalog{vendors: map[uuid.UUID]*models.Vendor{}},
		orders:    &fakeOrders{orders: map[uuid.UUID]*models.Order{}},
		processor: &fakeProcessor{},
	}
	svc, err := NewService(ServiceParams{
		Ledger:    f.ledger,
		Catalog:   f.catalog,
		Orders:    f.orders,
		Processor: f.processor,
		Config:    config.PayoutsConfig{MinPayoutCents: 1000},
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("settlement service setup: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) addOrder(chargeRef string) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Status:   enums.OrderStatusConfirmed,
	}
	if chargeRef != "" {
		order.ChargeRef = &chargeRef
	}
	f.orders.orders[order.ID] = order
	return order
}

func (f *fixture) addVendor(vendor *models.Vendor) *models.Vendor {
	f.catalog.vendors[vendor.ID] = vendor
	return vendor
}

func pendingPayout(vendorID, orderID uuid.UUID, amount int64) models.VendorPayout {
	return pendingPayoutIn(vendorID, orderID, amount, enums.CurrencyEUR)
}

func pendingPayoutIn(vendorID, orderID uuid.UUID, amount int64, currency enums.Currency) models.VendorPayout {
	return models.VendorPayout{
		ID:          uuid.New(),
		VendorID:    vendorID,
		OrderID:     orderID,
		AmountCents: amount,
		Currency:    currency,
		Status:      enums.PayoutStatusPending,
	}
}

func TestSettleOrder_TransfersPendingRow(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder("ch_abc")
	vendor := f.addVendor(readyVendor())
	payout := pendingPayout(vendor.ID, order.ID, 9300)
	f.ledger.payoutsByOrder = []models.VendorPayout{payout}

	outcomes, err := f.svc.SettleOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Status != enums.PayoutStatusCompleted || outcomes[0].TransferRef != "tr_test" {
		t.Fatalf("unexpected outcome: %+v", outcomes[0])
	}
	if f.ledger.completed[payout.ID] != "tr_test" {
		t.Fatal("expected ledger row marked completed with the transfer ref")
	}

	if len(f.processor.calls) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(f.processor.calls))
	}
	input := f.processor.calls[0].input
	if input.DestinationAccount != "acct_ready" || input.AmountCents != 9300 {
		t.Fatalf("unexpected transfer input: %+v", input)
	}
	if input.SourceCharge != "ch_abc" {
		t.Fatalf("order settlement must draw from the order charge, got %q", input.SourceCharge)
	}
	if input.Currency != "eur" {
		t.Fatalf("expected lowercase currency code, got %q", input.Currency)
	}
	if input.IdempotencyKey != IdempotencyKey([]uuid.UUID{payout.ID}) {
		t.Fatal("idempotency key must derive from the payout row set")
	}
}

func TestSettleOrder_DefersBelowThresholdAndNotReady(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder("ch_abc")
	ready := f.addVendor(readyVendor())
	notReady := f.addVendor(&models.Vendor{ID: uuid.New(), ConnectAccountStatus: enums.ConnectAccountStatusPending})
	f.ledger.payoutsByOrder = []models.VendorPayout{
		pendingPayout(ready.ID, order.ID, 999),
		pendingPayout(notReady.ID, order.ID, 5000),
	}

	outcomes, err := f.svc.SettleOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}
	if len(f.processor.calls) != 0 {
		t.Fatalf("expected no transfers, got %d", len(f.processor.calls))
	}
	for _, outcome := range outcomes {
		if outcome.Status != enums.PayoutStatusPending {
			t.Fatalf("deferred rows must stay pending, got %s", outcome.Status)
		}
	}
	if outcomes[0].Detail != "below minimum payout threshold" {
		t.Fatalf("unexpected detail: %q", outcomes[0].Detail)
	}
	if outcomes[1].Detail != "vendor account not ready" {
		t.Fatalf("unexpected detail: %q", outcomes[1].Detail)
	}
}

func TestSettleOrder_SkipsNonPendingRows(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder("ch_abc")
	vendor := f.addVendor(readyVendor())
	completed := pendingPayout(vendor.ID, order.ID, 5000)
	completed.Status = enums.PayoutStatusCompleted
	f.ledger.payoutsByOrder = []models.VendorPayout{completed}

	outcomes, err := f.svc.SettleOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("completed rows must be skipped, got %d outcomes", len(outcomes))
	}
}

func TestSettleOrder_ClaimConflictLeavesRowAlone(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder("ch_abc")
	vendor := f.addVendor(readyVendor())
	f.ledger.payoutsByOrder = []models.VendorPayout{pendingPayout(vendor.ID, order.ID, 5000)}
	f.ledger.claimFn = func(_ context.Context, _ []uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already being settled")
	}

	outcomes, err := f.svc.SettleOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}
	if outcomes[0].Detail != "payout already being settled" {
		t.Fatalf("unexpected detail: %q", outcomes[0].Detail)
	}
	if len(f.processor.calls) != 0 {
		t.Fatal("a lost claim must not reach the processor")
	}
}

func TestSettleOrder_FailureIsPerVendor(t *testing.T) {
	f := newFixture(t)
	order := f.addOrder("ch_abc")
	failing := f.addVendor(readyVendor())
	healthy := readyVendor()
	healthy.ConnectAccountID = strPtr("acct_healthy")
	f.addVendor(healthy)
	failRow := pendingPayout(failing.ID, order.ID, 4000)
	okRow := pendingPayout(healthy.ID, order.ID, 6000)
	f.ledger.payoutsByOrder = []models.VendorPayout{failRow, okRow}
	f.processor.transferFn = func(_ context.Context, input SplitTransferInput) (string, error) {
		if input.DestinationAccount == "acct_ready" {
			return "", errors.New("destination account frozen")
		}
		return "tr_ok", nil
	}

	outcomes, err := f.svc.SettleOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}
	if outcomes[0].Status != enums.PayoutStatusFailed {
		t.Fatalf("expected first row failed, got %s", outcomes[0].Status)
	}
	if outcomes[1].Status != enums.PayoutStatusCompleted {
		t.Fatalf("one vendor's failure must not block another, got %s", outcomes[1].Status)
	}
	if _, ok := f.ledger.failed[failRow.ID]; !ok {
		t.Fatal("expected failed row marked in the ledger")
	}
	if f.ledger.completed[okRow.ID] != "tr_ok" {
		t.Fatal("expected healthy row marked completed")
	}
}

func TestSettleOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.SettleOrder(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProcessPendingPayouts_ConsolidatesPerVendor(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	rowA := pendingPayout(vendor.ID, uuid.New(), 800)
	rowB := pendingPayout(vendor.ID, uuid.New(), 500)
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{rowA, rowB}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.TransfersIssued != 1 || result.RowsCompleted != 2 {
		t.Fatalf("expected one consolidated transfer over two rows, got %+v", result)
	}
	if len(f.processor.calls) != 1 {
		t.Fatalf("expected one processor call, got %d", len(f.processor.calls))
	}
	input := f.processor.calls[0].input
	if input.AmountCents != 1300 {
		t.Fatalf("expected consolidated amount 1300, got %d", input.AmountCents)
	}
	if input.SourceCharge != "" {
		t.Fatal("sweep transfers draw from the platform balance, not a charge")
	}
	if len(f.processor.statusCalls) != 1 || f.processor.statusCalls[0] != "acct_ready" {
		t.Fatalf("sweep must re-check the connected account first, got %v", f.processor.statusCalls)
	}
	if input.IdempotencyKey != IdempotencyKey([]uuid.UUID{rowA.ID, rowB.ID}) {
		t.Fatal("idempotency key must cover the whole row set")
	}
	if len(f.ledger.batchCompleted) != 1 || len(f.ledger.batchCompleted[0]) != 2 {
		t.Fatal("both rows must be stamped with the shared transfer ref")
	}
}

func TestProcessPendingPayouts_DefersBelowThresholdTotal(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{
		pendingPayout(vendor.ID, uuid.New(), 400),
		pendingPayout(vendor.ID, uuid.New(), 500),
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.RowsDeferred != 2 || result.TransfersIssued != 0 {
		t.Fatalf("expected both rows deferred, got %+v", result)
	}
	if len(f.processor.calls) != 0 {
		t.Fatal("sub-threshold totals must not reach the processor")
	}
}

func TestProcessPendingPayouts_SkipsContestedVendor(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{pendingPayout(vendor.ID, uuid.New(), 2000)}
	f.ledger.claimFn = func(_ context.Context, _ []uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already being settled")
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("a contested vendor must not fail the sweep: %v", err)
	}
	if result.TransfersIssued != 0 || len(f.processor.calls) != 0 {
		t.Fatalf("contested rows must not be transferred, got %+v", result)
	}
}

func TestProcessPendingPayouts_FailureMarksEveryRow(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	rowA := pendingPayout(vendor.ID, uuid.New(), 800)
	rowB := pendingPayout(vendor.ID, uuid.New(), 900)
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{rowA, rowB}
	f.processor.transferFn = func(_ context.Context, _ SplitTransferInput) (string, error) {
		return "", errors.New("insufficient platform balance")
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.RowsFailed != 2 {
		t.Fatalf("expected both rows failed, got %+v", result)
	}
	if len(f.ledger.failed) != 2 {
		t.Fatalf("expected both rows marked failed, got %d", len(f.ledger.failed))
	}
}

func TestProcessPendingPayouts_TransfersInRowCurrency(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{
		pendingPayoutIn(vendor.ID, uuid.New(), 2500, enums.CurrencyUSD),
	}

	if _, err := f.svc.ProcessPendingPayouts(context.Background()); err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if len(f.processor.calls) != 1 {
		t.Fatalf("expected one processor call, got %d", len(f.processor.calls))
	}
	if got := f.processor.calls[0].input.Currency; got != "usd" {
		t.Fatalf("transfer must carry the row currency, got %q", got)
	}
}

func TestProcessPendingPayouts_SplitsMixedCurrencies(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	eurA := pendingPayoutIn(vendor.ID, uuid.New(), 800, enums.CurrencyEUR)
	eurB := pendingPayoutIn(vendor.ID, uuid.New(), 400, enums.CurrencyEUR)
	usd := pendingPayoutIn(vendor.ID, uuid.New(), 3000, enums.CurrencyUSD)
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{eurA, eurB, usd}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.TransfersIssued != 2 || result.RowsCompleted != 3 {
		t.Fatalf("expected one transfer per currency, got %+v", result)
	}
	if len(f.processor.calls) != 2 {
		t.Fatalf("expected two processor calls, got %d", len(f.processor.calls))
	}

	byCurrency := map[string]SplitTransferInput{}
	for _, call := range f.processor.calls {
		byCurrency[call.input.Currency] = call.input
	}
	if byCurrency["eur"].AmountCents != 1200 {
		t.Fatalf("expected eur transfer of 1200, got %+v", byCurrency["eur"])
	}
	if byCurrency["usd"].AmountCents != 3000 {
		t.Fatalf("expected usd transfer of 3000, got %+v", byCurrency["usd"])
	}
	if byCurrency["eur"].IdempotencyKey != IdempotencyKey([]uuid.UUID{eurA.ID, eurB.ID}) {
		t.Fatal("each currency group keys the transfer to its own row set")
	}
	if byCurrency["usd"].IdempotencyKey != IdempotencyKey([]uuid.UUID{usd.ID}) {
		t.Fatal("each currency group keys the transfer to its own row set")
	}
}

func TestProcessPendingPayouts_CurrencyGroupsMeetThresholdAlone(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	// 600 + 700 tops the threshold combined, but the amounts live in
	// different currencies and cannot be added together.
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{
		pendingPayoutIn(vendor.ID, uuid.New(), 600, enums.CurrencyEUR),
		pendingPayoutIn(vendor.ID, uuid.New(), 700, enums.CurrencyGBP),
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.RowsDeferred != 2 || len(f.processor.calls) != 0 {
		t.Fatalf("sub-threshold currency groups must wait, got %+v", result)
	}
}

func TestProcessPendingPayouts_DefersWhenProcessorReportsPayoutsDisabled(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{pendingPayout(vendor.ID, uuid.New(), 5000)}
	f.processor.statusFn = func(_ context.Context, _ string) (*AccountStatus, error) {
		return &AccountStatus{ChargesEnabled: true, PayoutsEnabled: false}, nil
	}
	claimed := false
	f.ledger.claimFn = func(_ context.Context, _ []uuid.UUID) error {
		claimed = true
		return nil
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessPendingPayouts error: %v", err)
	}
	if result.RowsDeferred != 1 || len(f.processor.calls) != 0 {
		t.Fatalf("a disabled account must defer its rows, got %+v", result)
	}
	if claimed {
		t.Fatal("rows must not be claimed when the account cannot receive payouts")
	}
}

func TestProcessPendingPayouts_StatusCheckErrorDefersVendor(t *testing.T) {
	f := newFixture(t)
	vendor := f.addVendor(readyVendor())
	f.ledger.pendingVendors = []uuid.UUID{vendor.ID}
	f.ledger.pendingByVendor[vendor.ID] = []models.VendorPayout{pendingPayout(vendor.ID, uuid.New(), 5000)}
	f.processor.statusFn = func(_ context.Context, _ string) (*AccountStatus, error) {
		return nil, errors.New("processor unreachable")
	}

	result, err := f.svc.ProcessPendingPayouts(context.Background())
	if err != nil {
		t.Fatalf("a vendor status failure must not fail the sweep: %v", err)
	}
	if result.RowsDeferred != 1 || len(f.processor.calls) != 0 {
		t.Fatalf("expected rows deferred without a transfer, got %+v", result)
	}
	if len(f.ledger.failed) != 0 {
		t.Fatal("an unverified account is a deferral, not a failure")
	}
}

func TestIdempotencyKey_StableAcrossOrdering(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	key := IdempotencyKey([]uuid.UUID{a, b, c})
	if key != IdempotencyKey([]uuid.UUID{c, a, b}) {
		t.Fatal("key must not depend on row ordering")
	}
	if key == IdempotencyKey([]uuid.UUID{a, b}) {
		t.Fatal("different row sets must produce different keys")
	}
	if len(key) <= len("payout-settlement-") || key[:len("payout-settlement-")] != "payout-settlement-" {
		t.Fatalf("unexpected key shape: %q", key)
	}
}
