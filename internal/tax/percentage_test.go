package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/boutique/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Two dresses at 25.00 with 10.00 shipping: tax is 16% of 50.00, shipping untaxed.
func Test_PercentageCalculator_SubtotalOnly(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(d("0.16"), false)
	require.NoError(t, err)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{
			{
				ProductID:   1,
				Description: "Dress (M)",
				Quantity:    2,
				UnitPrice:   d("25.00"),
				TotalPrice:  d("50.00"),
			},
		},
		Shipping: d("10.00"),
	}

	result, err := calc.CalculateTax(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, "8.00", result.TotalTax.StringFixed(2), "50.00 * 0.16 = 8.00")
	assert.Len(t, result.Breakdown, 1)
	assert.True(t, result.Breakdown[0].Rate.Equal(d("0.16")))
	assert.True(t, result.Breakdown[0].Amount.Equal(result.TotalTax))
}

func Test_PercentageCalculator_Rates(t *testing.T) {
	tests := []struct {
		name        string
		rate        string
		taxShipping bool
		items       []string
		shipping    string
		expectedTax string
	}{
		{name: "zero rate", rate: "0", items: []string{"100.00"}, shipping: "5.00", expectedTax: "0.00"},
		{name: "sixteen percent", rate: "0.16", items: []string{"19.99", "5.01"}, shipping: "10.00", expectedTax: "4.00"},
		{name: "shipping taxed", rate: "0.10", taxShipping: true, items: []string{"75.00"}, shipping: "5.00", expectedTax: "8.00"},
		{name: "rounds half away from zero", rate: "0.075", items: []string{"25.00"}, expectedTax: "1.88"},
		{name: "rounds down below midpoint", rate: "0.08", items: []string{"10.40"}, expectedTax: "0.83"},
		{name: "no items", rate: "0.16", shipping: "10.00", expectedTax: "0.00"},
		{name: "full rate", rate: "1", items: []string{"12.34"}, expectedTax: "12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(d(tt.rate), tt.taxShipping)
			require.NoError(t, err)

			var items []tax.LineItem
			for _, p := range tt.items {
				items = append(items, tax.LineItem{TotalPrice: d(p)})
			}
			shipping := decimal.Zero
			if tt.shipping != "" {
				shipping = d(tt.shipping)
			}

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{LineItems: items, Shipping: shipping})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, result.TotalTax.StringFixed(2))
		})
	}
}

func Test_PercentageCalculator_InvalidRate(t *testing.T) {
	for _, rate := range []string{"-0.01", "1.01"} {
		t.Run(rate, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(d(rate), false)
			assert.Nil(t, calc)
			assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
		})
	}
}

func Test_PercentageCalculator_Idempotency(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(d("0.16"), false)
	require.NoError(t, err)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{{TotalPrice: d("50.00")}, {TotalPrice: d("30.00")}},
		Shipping:  d("10.00"),
	}

	result1, err1 := calc.CalculateTax(context.Background(), params)
	result2, err2 := calc.CalculateTax(context.Background(), params)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.True(t, result1.TotalTax.Equal(result2.TotalTax))
	assert.Equal(t, "12.80", result1.TotalTax.StringFixed(2))
}
