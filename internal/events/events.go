// Package events publishes domain events to the message bus.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Subjects, relative to the configured prefix.
const (
	SubjectOrderPlaced = "order.placed"
)

// OrderPlaced is published after an order commits.
type OrderPlaced struct {
	OrderID    int64   `json:"order_id"`
	UserID     *int64  `json:"user_id,omitempty"`
	Total      string  `json:"total"`
	Units      int     `json:"units"`
	VariantIDs []int64 `json:"variant_ids"`
}

// Publisher sends an event payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// PublishJSON marshals v and publishes it.
func PublishJSON(ctx context.Context, p Publisher, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, subject, data)
}

// NoopPublisher logs and drops events. Used when no NATS URL is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	p.logger.DebugContext(ctx, "event dropped (no broker configured)", "subject", subject, "bytes", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// Message is a captured publish.
type Message struct {
	Subject string
	Payload []byte
}

// MemoryPublisher records every publish. Safe for concurrent use.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (p *MemoryPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Subject: subject, Payload: append([]byte(nil), payload...)})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}
