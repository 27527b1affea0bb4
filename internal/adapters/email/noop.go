package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NoopSender logs instead of sending. Used when no Resend API key is
// configured and in tests.
type NoopSender struct{}

// Send logs the email and returns a synthetic message ID.
// PRE: none
// POST: No email is sent
func (NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	slog.Info("email_noop", "to", req.To, "subject", req.Subject)
	return SendResult{
		MessageID: "noop-" + uuid.New().String(),
		SentAt:    time.Now(),
	}, nil
}
