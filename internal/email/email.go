package email

import (
	"context"
	"log/slog"
)

// Email is an outgoing message.
type Email struct {
	To       []string
	From     string
	Subject  string
	TextBody string
	HTMLBody string // optional
	Headers  map[string]string
}

// Sender delivers email. Implementations: SMTPSender, LogSender.
type Sender interface {
	// Send delivers the message and returns a provider message id when one is available.
	Send(ctx context.Context, email *Email) (string, error)
}

// LogSender writes messages to the log instead of delivering them.
// Used when SMTP is not configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	s.logger.InfoContext(ctx, "email not sent (no SMTP configured)",
		"to", email.To,
		"subject", email.Subject,
	)
	return "", nil
}
