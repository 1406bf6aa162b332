package models

import "github.com/shopspring/decimal"

type CustomizationOption struct {
	Label         string          `json:"label"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
}

type CustomizationGroup struct {
	Name     string                `json:"name"`
	Required bool                  `json:"required"`
	Multiple bool                  `json:"multiple"`
	Options  []CustomizationOption `json:"options"`
}

type MenuItem struct {
	ID             string               `json:"_id"`
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	Category       string               `json:"category,omitempty"`
	Price          decimal.Decimal      `json:"price"`
	Available      bool                 `json:"isAvailable"`
	Customizations []CustomizationGroup `json:"customizations,omitempty"`
}
