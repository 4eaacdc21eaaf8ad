package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig holds connection settings.
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "boutique"
	Name          string // client name shown in server monitoring
}

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the server. Reconnects are handled by the client.
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	name := cfg.Name
	if name == "" {
		name = "boutique"
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{
		conn:   conn,
		prefix: strings.TrimSuffix(cfg.SubjectPrefix, "."),
		logger: logger,
	}, nil
}

// Subject joins the prefix and subject.
func (p *NATSPublisher) Subject(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

// Publish sends payload and flushes so the caller learns about a dead connection.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	full := p.Subject(subject)
	if err := p.conn.Publish(full, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", full, err)
	}
	var err error
	if _, ok := ctx.Deadline(); ok {
		err = p.conn.FlushWithContext(ctx)
	} else {
		err = p.conn.FlushTimeout(5 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("failed to flush %s: %w", full, err)
	}
	p.logger.DebugContext(ctx, "event published", "subject", full)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
