package kanban

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/order-engine/internal/domain/order"
)

type mockOrderRepo struct {
	orders []order.Order
}

func (m *mockOrderRepo) Save(_ context.Context, _ *order.Order) (string, error) { return "", nil }

func (m *mockOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return &m.orders[i], nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) {
	return m.orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ order.Status, _ string) error {
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, _ string) error { return nil }

type mockTransitioner struct {
	calls []transitionCall
	err   error
}

type transitionCall struct {
	id           string
	target       order.Status
	trackingCode string
}

func (m *mockTransitioner) Transition(_ context.Context, id string, target order.Status, trackingCode string) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, transitionCall{id: id, target: target, trackingCode: trackingCode})
	return nil
}

func newController(orders ...order.Order) (*Controller, *mockTransitioner) {
	svc := &mockTransitioner{}
	return NewController(&mockOrderRepo{orders: orders}, svc), svc
}

func TestSnapshot_GroupsByStatus(t *testing.T) {
	c, _ := newController(
		order.Order{ID: "o1", Status: order.StatusPending},
		order.Order{ID: "o2", Status: order.StatusPaid},
		order.Order{ID: "o3", Status: order.StatusPaid},
		order.Order{ID: "o4", Status: order.Status("legacy")},
		order.Order{ID: "o5", Status: order.StatusCancelled},
	)

	board, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Columns, 7)

	byStatus := make(map[order.Status][]order.Order)
	for _, col := range board.Columns {
		byStatus[col.Status] = col.Orders
	}

	// Unknown status falls back into pending; cancelled leaves the board.
	assert.Len(t, byStatus[order.StatusPending], 2)
	assert.Len(t, byStatus[order.StatusPaid], 2)
	total := 0
	for _, col := range board.Columns {
		total += len(col.Orders)
	}
	assert.Equal(t, 4, total)
}

func TestMoveOrder(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusApproved})

	err := c.MoveOrder(context.Background(), "o1", order.StatusApproved, order.StatusPaid, "")
	require.NoError(t, err)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, order.StatusPaid, svc.calls[0].target)
}

func TestMoveOrder_StaleColumn(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusPaid})

	err := c.MoveOrder(context.Background(), "o1", order.StatusApproved, order.StatusProducing, "")
	var staleErr *StaleColumnError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, order.StatusPaid, staleErr.Actual)
	assert.Empty(t, svc.calls)
}

func TestMoveOrder_ToShippedCarriesTrackingCode(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusProducing})

	err := c.MoveOrder(context.Background(), "o1", order.StatusProducing, order.StatusShipped, "BR987")
	require.NoError(t, err)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, "BR987", svc.calls[0].trackingCode)
}

func TestQuickAdvance(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusPending})

	status, err := c.QuickAdvance(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusNegotiation, status)
	require.Len(t, svc.calls, 1)
}

func TestQuickAdvance_NoOpAtEnd(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusDelivered})

	status, err := c.QuickAdvance(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, status)
	assert.Empty(t, svc.calls)
}

func TestQuickRevert_NoOpAtStart(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusPending})

	status, err := c.QuickRevert(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, status)
	assert.Empty(t, svc.calls)
}

func TestQuickRevert(t *testing.T) {
	c, svc := newController(order.Order{ID: "o1", Status: order.StatusShipped})

	status, err := c.QuickRevert(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusProducing, status)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, order.StatusProducing, svc.calls[0].target)
}
