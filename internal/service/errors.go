package service

import (
	"github.com/dukerupert/boutique/internal/domain"
)

// Checkout errors
var (
	ErrEmptyCart = domain.Errorf(domain.EINVALID, "", "Your cart is empty")

	// ErrProductRemoved and ErrVariantRemoved mean the catalog changed under
	// the cart. The offending line has already been dropped; the customer
	// should review the cart and try again.
	ErrProductRemoved = domain.Errorf(domain.ECONFLICT, "", "A product in your cart is no longer available. Please review your cart.")
	ErrVariantRemoved = domain.Errorf(domain.ECONFLICT, "", "A size in your cart is no longer available. Please review your cart.")

	ErrCheckoutFailed = domain.Errorf(domain.EINTERNAL, "", "We could not place your order. Nothing was charged; please try again.")
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidPrice = domain.Errorf(domain.EINVALID, "", "Price must be zero or more")
	ErrInvalidStock = domain.Errorf(domain.EINVALID, "", "Stock must be zero or more")
)
