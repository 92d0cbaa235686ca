package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/mailer"
)

// Mailer is a mailer implementation that logs messages and always succeeds.
// It simulates a 10ms delay to mimic real sending latency.
type Mailer struct {
	logger *slog.Logger
}

// New creates a new mock mailer.
func New(logger *slog.Logger) *Mailer {
	return &Mailer{logger: logger}
}

// Name returns the name of this mailer.
func (m *Mailer) Name() string {
	return "mock"
}

// Send logs the message details and simulates a 10ms sending delay. The body
// is never logged; it may carry a password reset link.
func (m *Mailer) Send(ctx context.Context, msg *mailer.Message) error {
	// Simulate sending delay.
	time.Sleep(10 * time.Millisecond)

	m.logger.InfoContext(ctx, "mock mailer: message sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}
