package email

import (
	"strconv"
	"time"
)

// EmailTemplate is implemented by every templated email.
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderConfirmationEmail is sent once an order commits. Money fields are
// pre-formatted two-decimal strings.
type OrderConfirmationEmail struct {
	OrderID      int64
	Email        string
	CustomerName string
	OrderDate    time.Time
	Items        []OrderItem
	Subtotal     string
	Shipping     string
	Tax          string
	Total        string
	Address      string
	City         string
	Country      string
	Payment      string
	ShopName     string
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order Confirmation #" + strconv.FormatInt(e.OrderID, 10)
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation.html"
}

// OrderItem is a line in an order email.
type OrderItem struct {
	Name     string // "Dress (M)"
	Quantity int
	Price    string
	Total    string
}
