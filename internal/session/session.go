// Package session keeps per-visitor state (the cart, the logged-in user and
// the pending checkout token) behind an opaque cookie. Values are JSON
// encoded and persisted by a pluggable Store.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when the id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists encoded session data.
type Store interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Keys used in the session payload.
const (
	keyCart          = "cart"
	keyUserID        = "user_id"
	keyCheckoutToken = "checkout_token"
	keyPlacedOrders  = "placed_orders"
)

// Session is one visitor's state. It is not safe for concurrent use; each
// request gets its own copy.
type Session struct {
	id     string
	values map[string]json.RawMessage

	// oldID is set when the id was rotated so the previous record can be removed.
	oldID     string
	dirty     bool
	destroyed bool
}

func newSession(id string) *Session {
	return &Session{id: id, values: make(map[string]json.RawMessage)}
}

func decodeSession(id string, data []byte) (*Session, error) {
	s := newSession(id)
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}

func (s *Session) encode() ([]byte, error) {
	return json.Marshal(s.values)
}

// ID returns the current session id.
func (s *Session) ID() string { return s.id }

// Dirty reports whether the session must be written back.
func (s *Session) Dirty() bool { return s.dirty }

// Get decodes the value stored at key into dst and reports whether it existed.
func (s *Session) Get(key string, dst any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session key %q: %w", key, err)
	}
	return true, nil
}

// GetRaw returns the raw bytes stored at key.
func (s *Session) GetRaw(key string) []byte {
	return s.values[key]
}

// Set stores v at key.
func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.dirty = true
	return nil
}

// SetRaw stores already encoded JSON at key.
func (s *Session) SetRaw(key string, raw []byte) {
	s.values[key] = json.RawMessage(raw)
	s.dirty = true
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Renew assigns a fresh id while keeping the values. Call it on login.
func (s *Session) Renew() error {
	id, err := GenerateID()
	if err != nil {
		return err
	}
	if s.oldID == "" {
		s.oldID = s.id
	}
	s.id = id
	s.dirty = true
	return nil
}

// Destroy drops every value and removes the record. Call it on logout.
func (s *Session) Destroy() {
	s.values = make(map[string]json.RawMessage)
	s.destroyed = true
	s.dirty = true
}

// GenerateID returns a cryptographically secure session id:
// 32 random bytes as a base64 URL-safe string.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or nil outside the middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
