package order

import "github.com/shopspring/decimal"

// DefaultTaxRate is the 8% sales tax applied at checkout.
var DefaultTaxRate = decimal.RequireFromString("0.08")

type Pricer struct {
	TaxRate decimal.Decimal
}

// Totals holds an order's derived amounts.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Price sums the effective line totals and applies tax rounded to cents.
func (p Pricer) Price(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}
