package models

import "github.com/shopspring/decimal"

func init() {
	// The ordering API speaks JSON numbers for prices, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
