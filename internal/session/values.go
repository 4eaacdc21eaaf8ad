package session

import (
	"github.com/dukerupert/boutique/internal/domain"
)

// Cart decodes the cart held by the session. Entries that fail validation are
// dropped and their raw keys returned; the cleaned cart is written back on
// the next SaveCart.
func (s *Session) Cart() (*domain.Cart, []string) {
	return domain.DecodeCart(s.GetRaw(keyCart))
}

// SaveCart writes the cart back when it changed.
func (s *Session) SaveCart(cart *domain.Cart) error {
	if !cart.Dirty() {
		return nil
	}
	if cart.IsEmpty() {
		s.Delete(keyCart)
		return nil
	}
	raw, err := cart.Encode()
	if err != nil {
		return err
	}
	s.SetRaw(keyCart, raw)
	return nil
}

// UserID returns the logged-in user id, or 0.
func (s *Session) UserID() int64 {
	var id int64
	if ok, err := s.Get(keyUserID, &id); !ok || err != nil {
		return 0
	}
	return id
}

// SetUserID records a successful login.
func (s *Session) SetUserID(id int64) error {
	return s.Set(keyUserID, id)
}

// ClearUserID logs the session out without dropping the cart.
func (s *Session) ClearUserID() {
	s.Delete(keyUserID)
}

// CheckoutToken returns the idempotency token issued for the pending checkout.
func (s *Session) CheckoutToken() string {
	var token string
	if ok, err := s.Get(keyCheckoutToken, &token); !ok || err != nil {
		return ""
	}
	return token
}

// SetCheckoutToken stores a freshly issued checkout token.
func (s *Session) SetCheckoutToken(token string) error {
	return s.Set(keyCheckoutToken, token)
}

// ClearCheckoutToken forgets the token once its order is placed.
func (s *Session) ClearCheckoutToken() {
	s.Delete(keyCheckoutToken)
}

// maxPlacedOrders bounds how many confirmation pages one session can reopen.
const maxPlacedOrders = 20

// PlacedOrders lists orders placed from this session, oldest first.
func (s *Session) PlacedOrders() []int64 {
	var ids []int64
	if ok, err := s.Get(keyPlacedOrders, &ids); !ok || err != nil {
		return nil
	}
	return ids
}

// AddPlacedOrder lets this session view the confirmation of order id.
func (s *Session) AddPlacedOrder(id int64) error {
	ids := s.PlacedOrders()
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	if len(ids) > maxPlacedOrders {
		ids = ids[len(ids)-maxPlacedOrders:]
	}
	return s.Set(keyPlacedOrders, ids)
}
