package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/tableorder/pkg/api"
	"github.com/example/tableorder/pkg/audit"
	"github.com/example/tableorder/pkg/cart"
	"github.com/example/tableorder/pkg/models"
	"github.com/example/tableorder/pkg/session"
	"github.com/example/tableorder/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderAPI struct {
	mu       sync.Mutex
	requests []models.CreateOrderRequest
	err      error
	block    chan struct{}
}

func (m *mockOrderAPI) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	block, err := m.block, m.err
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &models.Order{
		ID:          "ord-1",
		OrderNumber: "1042",
		Status:      models.OrderStatusReceived,
		TableID:     req.TableID,
		Items:       req.Items,
		TotalAmount: decimal.RequireFromString("28.06"),
	}, nil
}

func (m *mockOrderAPI) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (m *mockOrderAPI) ListOrders(ctx context.Context) ([]models.Order, error) {
	return []models.Order{{ID: "ord-1"}, {ID: "ord-0"}}, nil
}

func (m *mockOrderAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type fakeAuth bool

func (f fakeAuth) Authenticated() bool { return bool(f) }

type mockRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockRecorder) Record(ctx context.Context, action, entityID string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

type fixture struct {
	api      *mockOrderAPI
	cart     *cart.Cart
	tables   *session.Tables
	recorder *mockRecorder
	pipeline *Pipeline
}

func newFixture(t *testing.T, authed bool) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	f := &fixture{
		api:      &mockOrderAPI{},
		cart:     cart.New(st, decimal.RequireFromString("0.08"), zap.NewNop()),
		tables:   session.NewTables(st),
		recorder: &mockRecorder{},
	}
	f.pipeline = NewPipeline(f.api, f.cart, f.tables, fakeAuth(authed), f.recorder, zap.NewNop())
	return f
}

func (f *fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.cart.AddLine(ctx, models.CartLine{
		MenuItemID: "burger",
		Name:       "Burger",
		UnitPrice:  decimal.RequireFromString("12.99"),
		Quantity:   2,
	}))
	require.NoError(t, f.tables.Select(ctx, models.TableSelection{TableID: "t-5", TableNumber: "5"}))
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t, true)
	f.fill(t)

	order, err := f.pipeline.PlaceOrder(context.Background(), "no onions")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Len(t, order.Items, 1)

	require.Len(t, f.api.requests, 1)
	req := f.api.requests[0]
	assert.Equal(t, "t-5", req.TableID)
	assert.Equal(t, "no onions", req.Notes)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("25.98").Equal(req.Items[0].Subtotal))

	assert.Equal(t, 0, f.cart.Len())
	assert.Equal(t, []string{audit.ActionOrderPlaced}, f.recorder.actions)
}

func TestPlaceOrder_EmptyCartSendsNothing(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.tables.Select(context.Background(), models.TableSelection{TableID: "t-5"}))

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, f.api.calls())
}

func TestPlaceOrder_NoTable(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.cart.AddLine(context.Background(), models.CartLine{
		MenuItemID: "fries", Name: "Fries", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1,
	}))

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoTable)
	assert.Equal(t, 0, f.api.calls())
	assert.Equal(t, 1, f.cart.Len())
}

func TestPlaceOrder_RequiresAuth(t *testing.T) {
	f := newFixture(t, false)
	f.fill(t)

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.False(t, IsValidation(err))
	assert.Equal(t, 0, f.api.calls())
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	f := newFixture(t, true)
	f.fill(t)
	f.api.err = &api.BackendError{Status: 500, Message: "kitchen offline"}

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	require.Error(t, err)
	assert.EqualError(t, err, "kitchen offline")

	lines := f.cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, []string{audit.ActionOrderFailed}, f.recorder.actions)
}

func TestPlaceOrder_NoAutomaticRetry(t *testing.T) {
	f := newFixture(t, true)
	f.fill(t)
	f.api.err = &api.NetworkError{Op: "POST /orders", Err: errors.New("connection refused")}

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	require.Error(t, err)
	assert.True(t, api.IsNetwork(err))
	assert.Equal(t, 1, f.api.calls())
}

func TestPlaceOrder_SecondCallWhileInFlight(t *testing.T) {
	f := newFixture(t, true)
	f.fill(t)
	release := make(chan struct{})
	f.api.block = release

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.PlaceOrder(context.Background(), "")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.api.calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.pipeline.InFlight())

	_, err := f.pipeline.PlaceOrder(context.Background(), "")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.api.calls())
	assert.False(t, f.pipeline.InFlight())
}

func TestPlaceOrder_KeepsLinesAddedWhileInFlight(t *testing.T) {
	f := newFixture(t, true)
	f.fill(t)
	release := make(chan struct{})
	f.api.block = release

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.PlaceOrder(context.Background(), "")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.api.calls() == 1 }, time.Second, 5*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, f.cart.AddLine(ctx, models.CartLine{
		MenuItemID: "fries", Name: "Fries", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1,
	}))
	require.NoError(t, f.cart.AddLine(ctx, models.CartLine{
		MenuItemID: "burger", Name: "Burger", UnitPrice: decimal.RequireFromString("12.99"), Quantity: 1,
	}))

	close(release)
	require.NoError(t, <-done)

	require.Len(t, f.api.requests[0].Items, 1)
	assert.Equal(t, "burger", f.api.requests[0].Items[0].MenuItemID)

	lines := f.cart.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "burger", lines[0].MenuItemID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "fries", lines[1].MenuItemID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.pipeline.History(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)

	f = newFixture(t, true)
	orders, err := f.pipeline.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	order, err := f.pipeline.Get(context.Background(), "ord-9")
	require.NoError(t, err)
	assert.Equal(t, "ord-9", order.ID)
}
