package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// Money is an amount in a given ISO currency. Amounts marshal as decimal strings.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// ParseMoney builds Money from the string amounts the platform returns.
// Unparsable or empty amounts become zero; an empty currency falls back to USD.
func ParseMoney(amount, currency string) Money {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		value = decimal.Zero
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: value, CurrencyCode: currency}
}

// PriceRange mirrors the list/unit price pair attached to a product.
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}
