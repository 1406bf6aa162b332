package models

import "github.com/shopspring/decimal"

type Customization struct {
	Name                 string          `json:"name"`
	SelectedOptionLabels []string        `json:"selectedOptionLabels"`
	PriceModifier        decimal.Decimal `json:"priceModifier"`
}

// CartLine is one distinct menu item + customization set in the cart.
// UnitPrice already includes any customization price modifiers.
type CartLine struct {
	MenuItemID          string          `json:"menuItemId"`
	Name                string          `json:"name"`
	UnitPrice           decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	Customizations      []Customization `json:"customizations"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

// Recompute refreshes Subtotal from UnitPrice and Quantity.
func (l *CartLine) Recompute() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type TableSelection struct {
	TableID     string `json:"tableId"`
	TableNumber string `json:"tableNumber"`
}
