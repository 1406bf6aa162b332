package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartLine_Recompute(t *testing.T) {
	l := CartLine{UnitPrice: decimal.RequireFromString("12.99"), Quantity: 3}
	l.Recompute()
	assert.True(t, decimal.RequireFromString("38.97").Equal(l.Subtotal))
}

func TestOrderItemFromLine_PriceIsJSONNumber(t *testing.T) {
	l := CartLine{MenuItemID: "m1", Name: "Burger", UnitPrice: decimal.RequireFromString("9.50"), Quantity: 2}
	l.Recompute()

	data, err := json.Marshal(OrderItemFromLine(l))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":9.5`)
	assert.Contains(t, string(data), `"subtotal":19`)
	assert.Contains(t, string(data), `"menuItemId":"m1"`)
}

func TestRound2_HalfUp(t *testing.T) {
	assert.Equal(t, "2.08", Round2(decimal.RequireFromString("2.0784")).StringFixed(2))
	assert.Equal(t, "0.13", Round2(decimal.RequireFromString("0.125")).StringFixed(2))
}
