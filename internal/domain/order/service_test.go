package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/order-engine/internal/domain/auth"
	"github.com/salesdesk/order-engine/internal/domain/catalog"
	"github.com/salesdesk/order-engine/internal/domain/inventory"
	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID      map[string]*Order
	saved     *Order
	saveErr   error
	lastID    string
	lastCode  string
	transTo   Status
	deletedID string
}

func (m *mockOrderRepo) Save(_ context.Context, o *Order) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if o.ID == "" {
		o.ID = "generated-id"
	}
	m.saved = o
	return o.ID, nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) { return nil, nil }

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status, trackingCode string) error {
	m.lastID = id
	m.transTo = status
	m.lastCode = trackingCode
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return nil
}

type mockCatalog struct {
	products map[string]catalog.Product
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListPaymentMethods(_ context.Context) ([]catalog.PaymentMethod, error) {
	return nil, nil
}

type mockLedger struct {
	available map[string]int
}

func (m *mockLedger) AvailableStock(_ context.Context, productID string) (int, error) {
	return m.available[productID], nil
}

func (m *mockLedger) ListByOrder(_ context.Context, _ string) ([]inventory.Movement, error) {
	return nil, nil
}

func (m *mockLedger) Append(_ context.Context, _ inventory.Movement) error { return nil }

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, message string) {
	m.messages = append(m.messages, message)
}

// --- Helpers ---

func testFees() pricing.FeeTable {
	return pricing.FeeTable{
		pricing.ShippingStandard: decimal.RequireFromString("25.00"),
		pricing.ShippingExpress:  decimal.RequireFromString("45.00"),
		pricing.ShippingCarrier:  decimal.RequireFromString("80.00"),
	}
}

func clerk() auth.Principal {
	return auth.Principal{ID: "u1", Name: "clerk", Role: auth.RoleClerk, Privilege: 1}
}

func manager() auth.Principal {
	return auth.Principal{ID: "u2", Name: "manager", Role: auth.RoleManager, Privilege: 7}
}

type fixture struct {
	repo     *mockOrderRepo
	cat      *mockCatalog
	ledger   *mockLedger
	notifier *mockNotifier
	svc      *Service
}

func newFixture(products ...catalog.Product) *fixture {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	f := &fixture{
		repo:     &mockOrderRepo{byID: make(map[string]*Order)},
		cat:      &mockCatalog{products: byID},
		ledger:   &mockLedger{available: make(map[string]int)},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(f.repo, f.cat, f.ledger, testFees(), f.notifier)
	return f
}

func widget() catalog.Product {
	return catalog.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("100.00"), Stock: 10}
}

func draftOrder(items ...LineItem) *Order {
	return &Order{
		Client: &ClientRef{ID: "c1", Name: "Maria"},
		Items:  items,
	}
}

func catalogItem(qty int) LineItem {
	return LineItem{ProductID: "p1", Name: "Widget", UnitPrice: decimal.RequireFromString("100.00"), Quantity: qty}
}

// --- Tests ---

func TestSave_NoClient(t *testing.T) {
	f := newFixture(widget())

	o := draftOrder(catalogItem(1))
	o.Client = nil
	_, err := f.svc.Save(context.Background(), clerk(), o)
	require.ErrorIs(t, err, ErrClientRequired)
	assert.Nil(t, f.repo.saved)
}

func TestSave_EmptyItems(t *testing.T) {
	f := newFixture(widget())

	_, err := f.svc.Save(context.Background(), clerk(), draftOrder())
	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Nil(t, f.repo.saved)
}

func TestSave_InvalidQuantity(t *testing.T) {
	f := newFixture(widget())

	_, err := f.svc.Save(context.Background(), clerk(), draftOrder(catalogItem(0)))

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestSave_ManualItemBlankName(t *testing.T) {
	f := newFixture()

	item := LineItem{ProductID: NewManualID(), UnitPrice: decimal.NewFromInt(10), Quantity: 1}
	_, err := f.svc.Save(context.Background(), clerk(), draftOrder(item))

	var miErr *ManualItemError
	require.ErrorAs(t, err, &miErr)
	assert.Contains(t, miErr.Reason, "name")
}

func TestSave_ManualItemNonPositivePrice(t *testing.T) {
	f := newFixture()

	item := LineItem{ProductID: NewManualID(), Name: "Custom engraving", UnitPrice: decimal.Zero, Quantity: 1}
	_, err := f.svc.Save(context.Background(), clerk(), draftOrder(item))

	var miErr *ManualItemError
	require.ErrorAs(t, err, &miErr)
	assert.Contains(t, miErr.Reason, "price")
}

func TestSave_ProductNotFound(t *testing.T) {
	f := newFixture()

	item := LineItem{ProductID: "missing", UnitPrice: decimal.NewFromInt(5), Quantity: 1}
	_, err := f.svc.Save(context.Background(), clerk(), draftOrder(item))

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestSave_SnapshotsTotals(t *testing.T) {
	f := newFixture(widget())

	o := draftOrder(
		catalogItem(2),
		LineItem{ProductID: "p1", Name: "Widget", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 1},
	)
	o.Items[1].ProductID = "p1" // second line of the same product
	o.ShippingMethod = pricing.ShippingExpress

	result, err := f.svc.Save(context.Background(), clerk(), o)
	require.NoError(t, err)

	assert.Equal(t, "generated-id", result.OrderID)
	assert.True(t, decimal.RequireFromString("250.00").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("2.50").Equal(o.InsuranceFee))
	assert.True(t, decimal.RequireFromString("45.00").Equal(o.ShippingFee))
	assert.True(t, decimal.RequireFromString("297.50").Equal(o.GrandTotal))
	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "generated-id")
}

func TestSave_InvalidDiscountCode(t *testing.T) {
	f := newFixture(widget())

	o := draftOrder(catalogItem(1))
	o.DiscountCode = "WRONG"
	_, err := f.svc.Save(context.Background(), clerk(), o)
	require.ErrorIs(t, err, pricing.ErrInvalidDiscountCode)
	assert.Nil(t, f.repo.saved)
}

func TestSave_LockedOrderRejectsItemEdit(t *testing.T) {
	f := newFixture(widget())
	f.repo.byID["o1"] = &Order{
		ID:     "o1",
		Status: StatusPaid,
		Client: &ClientRef{ID: "c1"},
		Items:  []LineItem{catalogItem(1)},
	}

	edited := draftOrder(catalogItem(3))
	edited.ID = "o1"

	_, err := f.svc.Save(context.Background(), clerk(), edited)
	var lvErr *LockViolationError
	require.ErrorAs(t, err, &lvErr)
	assert.Equal(t, StatusPaid, lvErr.Status)

	// Same edit from an elevated principal succeeds.
	edited = draftOrder(catalogItem(3))
	edited.ID = "o1"
	_, err = f.svc.Save(context.Background(), manager(), edited)
	require.NoError(t, err)
}

func TestSave_LockedOrderDuplicateProductLines(t *testing.T) {
	f := newFixture(widget())
	f.repo.byID["o1"] = &Order{
		ID:     "o1",
		Status: StatusPaid,
		Client: &ClientRef{ID: "c1"},
		Items:  []LineItem{catalogItem(1), catalogItem(2)},
	}

	// Same line count, same product on both lines, but one quantity bumped.
	edited := draftOrder(catalogItem(2), catalogItem(2))
	edited.ID = "o1"

	_, err := f.svc.Save(context.Background(), clerk(), edited)
	var lvErr *LockViolationError
	require.ErrorAs(t, err, &lvErr)
	assert.Nil(t, f.repo.saved)

	// An unchanged duplicate-line set, in a different order, is not an edit.
	reordered := draftOrder(catalogItem(2), catalogItem(1))
	reordered.ID = "o1"
	_, err = f.svc.Save(context.Background(), clerk(), reordered)
	require.NoError(t, err)
}

func TestSave_LockedOrderAllowsNonItemEdit(t *testing.T) {
	f := newFixture(widget())
	f.repo.byID["o1"] = &Order{
		ID:     "o1",
		Status: StatusPaid,
		Client: &ClientRef{ID: "c1"},
		Items:  []LineItem{catalogItem(1)},
	}

	edited := draftOrder(catalogItem(1))
	edited.ID = "o1"
	edited.Address.City = "Recife"

	_, err := f.svc.Save(context.Background(), clerk(), edited)
	require.NoError(t, err)
	// Status survives a re-save untouched.
	assert.Equal(t, StatusPaid, edited.Status)
}

func TestSave_ReportsOversold(t *testing.T) {
	f := newFixture(widget())
	f.ledger.available["p1"] = -2

	result, err := f.svc.Save(context.Background(), clerk(), draftOrder(catalogItem(12)))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, result.Oversold)
}

func TestSave_RepositoryError(t *testing.T) {
	f := newFixture(widget())
	f.repo.saveErr = errors.New("db write failed")

	_, err := f.svc.Save(context.Background(), clerk(), draftOrder(catalogItem(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save order")
	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "failed")
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := newFixture()

	err := f.svc.Transition(context.Background(), "o1", Status("archived"), "")
	var isErr *InvalidStatusError
	require.ErrorAs(t, err, &isErr)
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture()

	err := f.svc.Transition(context.Background(), "missing", StatusApproved, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_ShippedWithTrackingCode(t *testing.T) {
	f := newFixture()
	f.repo.byID["o1"] = &Order{ID: "o1", Status: StatusProducing}

	err := f.svc.Transition(context.Background(), "o1", StatusShipped, "BR123456789")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, f.repo.transTo)
	assert.Equal(t, "BR123456789", f.repo.lastCode)
}

func TestTransition_ShippedWithoutTrackingCode(t *testing.T) {
	f := newFixture()
	f.repo.byID["o1"] = &Order{ID: "o1", Status: StatusProducing}

	// Valid: the tracking code simply stays unset.
	err := f.svc.Transition(context.Background(), "o1", StatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, f.repo.transTo)
	assert.Equal(t, "", f.repo.lastCode)
}

func TestTransition_KeepsTrackingCodeOnLaterMoves(t *testing.T) {
	f := newFixture()
	f.repo.byID["o1"] = &Order{ID: "o1", Status: StatusShipped, TrackingCode: "BR42"}

	err := f.svc.Transition(context.Background(), "o1", StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, "BR42", f.repo.lastCode)
}

func TestCancel(t *testing.T) {
	f := newFixture()
	f.repo.byID["o1"] = &Order{ID: "o1", Status: StatusNegotiation}

	require.NoError(t, f.svc.Cancel(context.Background(), "o1"))
	assert.Equal(t, StatusCancelled, f.repo.transTo)
}

func TestDelete(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.Delete(context.Background(), "o1"))
	assert.Equal(t, "o1", f.repo.deletedID)
}
