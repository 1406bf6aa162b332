// Package cart holds the diner's cart lines and keeps the persisted copy in sync.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/tableorder/pkg/models"
	"github.com/example/tableorder/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidLine = errors.New("invalid cart line")

type Cart struct {
	mu      sync.Mutex
	lines   []models.CartLine
	store   store.Store
	taxRate decimal.Decimal
	logger  *zap.Logger
}

func New(st store.Store, taxRate decimal.Decimal, logger *zap.Logger) *Cart {
	return &Cart{
		store:   st,
		taxRate: taxRate,
		logger:  logger.Named("cart"),
	}
}

// Load replaces the in-memory lines with the persisted cart. A corrupt
// persisted cart is dropped and the cart starts empty.
func (c *Cart) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lines []models.CartLine
	err := store.GetJSON(ctx, c.store, store.KeyCart, &lines)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		lines = nil
	default:
		c.logger.Warn("Discarding unreadable persisted cart", zap.Error(err))
		if rmErr := c.store.Remove(ctx, store.KeyCart); rmErr != nil {
			return fmt.Errorf("failed to remove corrupt cart: %w", rmErr)
		}
		lines = nil
	}

	for i := range lines {
		lines[i].Recompute()
	}
	c.lines = lines
	c.logger.Debug("Cart loaded", zap.Int("lines", len(lines)))
	return nil
}

// AddLine merges line into an existing line with the same menu item and
// customizations, or appends it.
func (c *Cart) AddLine(ctx context.Context, line models.CartLine) error {
	if err := validate(line); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := customizationKey(line.Customizations)
	for i := range c.lines {
		if c.lines[i].MenuItemID == line.MenuItemID && customizationKey(c.lines[i].Customizations) == key {
			c.lines[i].Quantity += line.Quantity
			c.lines[i].Recompute()
			return c.persist(ctx)
		}
	}

	line.Recompute()
	c.lines = append(c.lines, line)
	return c.persist(ctx)
}

// RemoveLine drops the first line for menuItemID, whatever its customizations.
func (c *Cart) RemoveLine(ctx context.Context, menuItemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, menuItemID)
}

// SetQuantity updates the first line for menuItemID. q <= 0 removes it.
func (c *Cart) SetQuantity(ctx context.Context, menuItemID string, q int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q <= 0 {
		return c.removeLocked(ctx, menuItemID)
	}

	i := c.indexOf(menuItemID)
	if i < 0 {
		return nil
	}
	c.lines[i].Quantity = q
	c.lines[i].Recompute()
	return c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	if err := c.store.Remove(ctx, store.KeyCart); err != nil {
		return fmt.Errorf("failed to clear persisted cart: %w", err)
	}
	return nil
}

// RemoveSubmitted takes submitted lines out of the cart and keeps anything
// added since they were read. Each submitted line reduces the matching line
// (same menu item and customizations) by its quantity.
func (c *Cart) RemoveSubmitted(ctx context.Context, submitted []models.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range submitted {
		key := customizationKey(s.Customizations)
		for i := range c.lines {
			if c.lines[i].MenuItemID != s.MenuItemID || customizationKey(c.lines[i].Customizations) != key {
				continue
			}
			c.lines[i].Quantity -= s.Quantity
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			} else {
				c.lines[i].Recompute()
			}
			break
		}
	}

	if len(c.lines) > 0 {
		return c.persist(ctx)
	}
	c.lines = nil
	if err := c.store.Remove(ctx, store.KeyCart); err != nil {
		return fmt.Errorf("failed to clear persisted cart: %w", err)
	}
	return nil
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Totals sums the lines unrounded and rounds each figure to cents.
func (c *Cart) Totals() models.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.lines, c.taxRate)
}

func (c *Cart) TaxRate() decimal.Decimal {
	return c.taxRate
}

func ComputeTotals(lines []models.CartLine, taxRate decimal.Decimal) models.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Mul(taxRate)

	return models.Totals{
		Subtotal: models.Round2(subtotal),
		Tax:      models.Round2(tax),
		Total:    models.Round2(subtotal.Add(tax)),
	}
}

func (c *Cart) removeLocked(ctx context.Context, menuItemID string) error {
	i := c.indexOf(menuItemID)
	if i < 0 {
		return nil
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return c.persist(ctx)
}

func (c *Cart) indexOf(menuItemID string) int {
	for i := range c.lines {
		if c.lines[i].MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// persist writes the whole cart through to the store. Callers hold c.mu.
func (c *Cart) persist(ctx context.Context) error {
	lines := c.lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	if err := store.SetJSON(ctx, c.store, store.KeyCart, lines); err != nil {
		c.logger.Error("Failed to persist cart", zap.Error(err))
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func validate(line models.CartLine) error {
	switch {
	case line.MenuItemID == "":
		return fmt.Errorf("%w: menu item id is required", ErrInvalidLine)
	case line.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidLine)
	case line.UnitPrice.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidLine)
	}
	return nil
}

// customizationKey serializes customizations so that equal selections compare
// equal as strings; nil and empty are the same selection.
func customizationKey(cs []models.Customization) string {
	if len(cs) == 0 {
		return "[]"
	}
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Sprintf("%v", cs)
	}
	return string(data)
}
