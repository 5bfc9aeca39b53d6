package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Mail is an outbound notification message
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers notification mail. Delivery is always best-effort; no
// financial mutation waits on it.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer writes mail to the log instead of sending it, the fallback
// for environments without an outbound mail relay.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements Mailer
func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	m.logger.Info("mail dispatched (log only)",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
	)
	return nil
}

// timeoutMailer enforces a fixed delivery timeout so a stuck relay cannot
// hold an event handler open.
type timeoutMailer struct {
	inner   Mailer
	timeout time.Duration
}

// WithTimeout wraps a Mailer with a per-send timeout
func WithTimeout(inner Mailer, timeout time.Duration) Mailer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &timeoutMailer{inner: inner, timeout: timeout}
}

// Send implements Mailer
func (m *timeoutMailer) Send(ctx context.Context, mail Mail) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.inner.Send(ctx, mail)
}
