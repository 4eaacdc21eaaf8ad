package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// PercentageCalculator calculates tax using a single flat rate.
type PercentageCalculator struct {
	rate        decimal.Decimal // e.g., 0.16 for 16%
	taxShipping bool
}

// NewPercentageCalculator creates a percentage-based calculator. When
// taxShipping is false only the item subtotal is taxed.
func NewPercentageCalculator(rate decimal.Decimal, taxShipping bool) (Calculator, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}
	return &PercentageCalculator{rate: rate, taxShipping: taxShipping}, nil
}

// CalculateTax computes rate × taxable amount, rounded half away from zero to cents.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	taxable := params.Subtotal()
	if c.taxShipping {
		taxable = taxable.Add(params.Shipping)
	}
	amount := taxable.Mul(c.rate).Round(2)

	return &TaxResult{
		TotalTax: amount,
		Breakdown: []TaxBreakdown{{
			Name:   "Sales Tax",
			Rate:   c.rate,
			Amount: amount,
		}},
	}, nil
}
