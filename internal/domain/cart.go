package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cart errors
var (
	ErrInvalidCartKey    = Errorf(EINVALID, "", "Invalid cart key")
	ErrCartLineNotFound  = Errorf(ENOTFOUND, "", "Item not found in cart")
	ErrOutOfStock        = Errorf(EINVALID, "", "This size is out of stock")
	ErrInsufficientStock = Errorf(EINVALID, "", "Insufficient stock")
	ErrNoSizeSelected    = Errorf(EINVALID, "", "No size selected")
	ErrInvalidQuantity   = Errorf(EINVALID, "", "Quantity must be at least 1")
	ErrQuantityTooLarge  = Errorf(EINVALID, "", fmt.Sprintf("Quantity cannot exceed %d", MaxLineQuantity))
)

// MaxLineQuantity caps a single add-to-cart request.
const MaxLineQuantity = 1000

// InsufficientStockError reports how many units are actually available.
// It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	Key       CartKey
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available", e.Key, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// CartKey addresses one cart line. It is only rendered as "{product_id}-{variant_id}"
// at the session boundary.
type CartKey struct {
	ProductID int64
	VariantID int64
}

func (k CartKey) String() string {
	return strconv.FormatInt(k.ProductID, 10) + "-" + strconv.FormatInt(k.VariantID, 10)
}

// ParseCartKey parses the "{product_id}-{variant_id}" form. Both ids must be positive.
func ParseCartKey(s string) (CartKey, error) {
	p, v, ok := strings.Cut(s, "-")
	if !ok {
		return CartKey{}, ErrInvalidCartKey
	}
	productID, err := strconv.ParseInt(p, 10, 64)
	if err != nil || productID <= 0 {
		return CartKey{}, ErrInvalidCartKey
	}
	variantID, err := strconv.ParseInt(v, 10, 64)
	if err != nil || variantID <= 0 {
		return CartKey{}, ErrInvalidCartKey
	}
	return CartKey{ProductID: productID, VariantID: variantID}, nil
}

// CartLine is one entry of the cart. UnitPrice is captured when the line is created.
type CartLine struct {
	Key       CartKey
	Name      string
	Size      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal is Quantity × UnitPrice.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the session-resident shopping cart. It is never authoritative:
// stock and product existence are re-checked against the catalog.
type Cart struct {
	lines map[CartKey]*CartLine
	dirty bool
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{lines: make(map[CartKey]*CartLine)}
}

// Lines returns a copy of the lines ordered by product then variant id.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ProductID != out[j].Key.ProductID {
			return out[i].Key.ProductID < out[j].Key.ProductID
		}
		return out[i].Key.VariantID < out[j].Key.VariantID
	})
	return out
}

// Line returns the line for key.
func (c *Cart) Line(key CartKey) (CartLine, bool) {
	l, ok := c.lines[key]
	if !ok {
		return CartLine{}, false
	}
	return *l, true
}

// Quantity returns the quantity held for key, zero when absent.
func (c *Cart) Quantity(key CartKey) int {
	if l, ok := c.lines[key]; ok {
		return l.Quantity
	}
	return 0
}

// Put inserts or replaces a line.
func (c *Cart) Put(line CartLine) {
	l := line
	c.lines[line.Key] = &l
	c.dirty = true
}

// SetQuantity updates the quantity of an existing line. A quantity <= 0 removes it.
func (c *Cart) SetQuantity(key CartKey, quantity int) bool {
	l, ok := c.lines[key]
	if !ok {
		return false
	}
	if quantity <= 0 {
		delete(c.lines, key)
	} else {
		l.Quantity = quantity
	}
	c.dirty = true
	return true
}

// Remove deletes a line and reports whether it existed.
func (c *Cart) Remove(key CartKey) bool {
	if _, ok := c.lines[key]; !ok {
		return false
	}
	delete(c.lines, key)
	c.dirty = true
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.lines = make(map[CartKey]*CartLine)
	c.dirty = true
}

func (c *Cart) Len() int      { return len(c.lines) }
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// TotalQuantity sums quantities across all lines.
func (c *Cart) TotalQuantity() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total is the decimal sum of every line subtotal.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Dirty reports whether the cart changed since it was decoded.
func (c *Cart) Dirty() bool { return c.dirty }

// VariantIDs lists the variant ids referenced by the cart.
func (c *Cart) VariantIDs() []int64 {
	ids := make([]int64, 0, len(c.lines))
	for k := range c.lines {
		ids = append(ids, k.VariantID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// cartEntry is the session wire shape of a line. Everything in it is untrusted.
type cartEntry struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// DecodeCart parses session bytes into a Cart. Entries that do not validate are
// dropped and their raw keys returned. A cart that lost entries is marked dirty
// so the cleaned version gets written back.
func DecodeCart(raw []byte) (*Cart, []string) {
	cart := NewCart()
	if len(raw) == 0 {
		return cart, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		cart.dirty = true
		return cart, []string{"*"}
	}

	var dropped []string
	for rawKey, rawEntry := range entries {
		line, err := parseCartEntry(rawKey, rawEntry)
		if err != nil {
			dropped = append(dropped, rawKey)
			continue
		}
		cart.lines[line.Key] = &line
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		cart.dirty = true
	}
	return cart, dropped
}

func parseCartEntry(rawKey string, rawEntry json.RawMessage) (CartLine, error) {
	key, err := ParseCartKey(rawKey)
	if err != nil {
		return CartLine{}, err
	}

	var e cartEntry
	if err := json.Unmarshal(rawEntry, &e); err != nil {
		return CartLine{}, fmt.Errorf("malformed entry: %w", err)
	}
	if e.ProductID != key.ProductID || e.VariantID != key.VariantID {
		return CartLine{}, fmt.Errorf("entry ids do not match key %s", rawKey)
	}
	if strings.TrimSpace(e.Name) == "" {
		return CartLine{}, fmt.Errorf("entry %s has no name", rawKey)
	}
	if e.Quantity < 1 {
		return CartLine{}, fmt.Errorf("entry %s has quantity %d", rawKey, e.Quantity)
	}
	price, err := decimal.NewFromString(e.Price)
	if err != nil || price.IsNegative() {
		return CartLine{}, fmt.Errorf("entry %s has invalid price %q", rawKey, e.Price)
	}

	return CartLine{
		Key:       key,
		Name:      e.Name,
		Size:      e.Size,
		UnitPrice: price,
		Quantity:  e.Quantity,
	}, nil
}

// Encode renders the cart in its session wire shape.
func (c *Cart) Encode() ([]byte, error) {
	entries := make(map[string]cartEntry, len(c.lines))
	for k, l := range c.lines {
		entries[k.String()] = cartEntry{
			ProductID: k.ProductID,
			VariantID: k.VariantID,
			Name:      l.Name,
			Size:      l.Size,
			Price:     l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
		}
	}
	return json.Marshal(entries)
}
