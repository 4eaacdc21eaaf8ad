package shipping

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for shipping rate lookups.
type Provider interface {
	// GetRates returns available shipping options for a shipment, cheapest first
	// when the implementation can tell.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating shipping rates.
type RateParams struct {
	DestinationAddress ShippingAddress
	ItemCount          int
}

// ShippingAddress represents a complete shipping address.
type ShippingAddress struct {
	Name       string
	Line1      string
	City       string
	PostalCode string
	Country    string
	Phone      string
	Email      string
}

// Rate represents a shipping rate option.
type Rate struct {
	RateID                string
	Carrier               string
	ServiceName           string
	ServiceCode           string
	Cost                  decimal.Decimal
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}

// Cheapest returns the lowest-cost rate from rates.
func Cheapest(rates []Rate) (Rate, error) {
	if len(rates) == 0 {
		return Rate{}, ErrNoRates
	}
	best := rates[0]
	for _, r := range rates[1:] {
		if r.Cost.LessThan(best.Cost) {
			best = r
		}
	}
	return best, nil
}
