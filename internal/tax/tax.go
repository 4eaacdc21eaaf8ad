package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for order line items and, depending on the
	// implementation, shipping. Amounts are rounded to cents.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	ShippingAddress Address
	LineItems       []LineItem
	Shipping        decimal.Decimal
}

// Address represents a physical address for tax purposes.
type Address struct {
	Line1      string
	City       string
	PostalCode string
	Country    string
}

// LineItem represents a single item being taxed.
type LineItem struct {
	ProductID   int64
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTax  decimal.Decimal
	Breakdown []TaxBreakdown
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Name   string          // e.g., "VAT"
	Rate   decimal.Decimal // e.g., 0.16 for 16%
	Amount decimal.Decimal
}

// Subtotal sums TotalPrice over the line items.
func (p TaxParams) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range p.LineItems {
		sum = sum.Add(li.TotalPrice)
	}
	return sum
}
