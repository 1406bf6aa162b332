// Package order turns the cart into a backend order.
package order

import (
	"context"
	"sync/atomic"

	"github.com/example/tableorder/pkg/audit"
	"github.com/example/tableorder/pkg/models"
	"go.uber.org/zap"
)

type OrderAPI interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
}

type Cart interface {
	Lines() []models.CartLine
	RemoveSubmitted(ctx context.Context, lines []models.CartLine) error
}

type TableSource interface {
	Current(ctx context.Context) (*models.TableSelection, error)
}

type AuthSource interface {
	Authenticated() bool
}

type Pipeline struct {
	api    OrderAPI
	cart   Cart
	tables TableSource
	auth   AuthSource
	audit  audit.Recorder
	logger *zap.Logger

	inFlight atomic.Bool
}

func NewPipeline(api OrderAPI, cart Cart, tables TableSource, auth AuthSource, rec audit.Recorder, logger *zap.Logger) *Pipeline {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Pipeline{
		api:    api,
		cart:   cart,
		tables: tables,
		auth:   auth,
		audit:  rec,
		logger: logger.Named("order"),
	}
}

// PlaceOrder submits the cart as one order. It never retries and never
// deduplicates; a call made while another is pending returns
// ErrSubmissionInFlight without touching the backend.
func (p *Pipeline) PlaceOrder(ctx context.Context, notes string) (*models.Order, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer p.inFlight.Store(false)

	lines := p.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	table, err := p.tables.Current(ctx)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrNoTable
	}

	if !p.auth.Authenticated() {
		return nil, ErrAuthRequired
	}

	req := models.CreateOrderRequest{
		TableID: table.TableID,
		Items:   make([]models.OrderItem, len(lines)),
		Notes:   notes,
	}
	for i, l := range lines {
		req.Items[i] = models.OrderItemFromLine(l)
	}

	created, err := p.api.CreateOrder(ctx, req)
	if err != nil {
		p.logger.Warn("Order submission failed",
			zap.String("table_id", table.TableID),
			zap.Int("item_count", len(lines)),
			zap.Error(err))
		p.audit.Record(ctx, audit.ActionOrderFailed, table.TableID, map[string]interface{}{
			"item_count": len(lines),
			"error":      err.Error(),
		})
		return nil, err
	}

	// Lines added while the request was pending stay in the cart.
	if err := p.cart.RemoveSubmitted(ctx, lines); err != nil {
		p.logger.Error("Failed to clear cart after order", zap.String("order_id", created.ID), zap.Error(err))
	}

	p.logger.Info("Order placed",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("table_id", table.TableID),
		zap.Int("item_count", len(lines)))
	p.audit.Record(ctx, audit.ActionOrderPlaced, created.ID, map[string]interface{}{
		"order_number": created.OrderNumber,
		"table_id":     table.TableID,
		"item_count":   len(lines),
		"total_amount": created.TotalAmount.String(),
	})

	return created, nil
}

// InFlight reports whether a submission is pending.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

func (p *Pipeline) Get(ctx context.Context, id string) (*models.Order, error) {
	return p.api.GetOrder(ctx, id)
}

func (p *Pipeline) History(ctx context.Context) ([]models.Order, error) {
	if !p.auth.Authenticated() {
		return nil, ErrAuthRequired
	}
	return p.api.ListOrders(ctx)
}
