package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCancelled = "cancelled"
)

// OrderItem mirrors CartLine one to one on the wire.
type OrderItem struct {
	MenuItemID          string          `json:"menuItemId"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	Customizations      []Customization `json:"customizations"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

type CreateOrderRequest struct {
	TableID string      `json:"tableId"`
	Items   []OrderItem `json:"items"`
	Notes   string      `json:"notes,omitempty"`
}

type Order struct {
	ID          string          `json:"_id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	TableID     string          `json:"tableId,omitempty"`
	Items       []OrderItem     `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func OrderItemFromLine(l CartLine) OrderItem {
	return OrderItem{
		MenuItemID:          l.MenuItemID,
		Name:                l.Name,
		Price:               l.UnitPrice,
		Quantity:            l.Quantity,
		Customizations:      l.Customizations,
		Subtotal:            l.Subtotal,
		SpecialInstructions: l.SpecialInstructions,
	}
}
