package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"nextgen/internal/adapters/email"
)

// NotifySyncFailureInput carries the failed run's details.
type NotifySyncFailureInput struct {
	RunError  error
	StartedAt time.Time
}

// NotifySyncFailureDeps holds dependencies for NotifySyncFailure.
type NotifySyncFailureDeps struct {
	Sender  email.Sender
	AlertTo string // admin address; empty disables alerts
}

// ExecuteNotifySyncFailure emails the admin about a failed reconciler run.
// Alerts are best-effort: a send failure is logged and swallowed so it can
// never mask the run failure itself.
// PRE: input.RunError is non-nil
// POST: One alert email is attempted when an alert address is configured
func ExecuteNotifySyncFailure(ctx context.Context, input NotifySyncFailureInput, deps NotifySyncFailureDeps) {
	if deps.AlertTo == "" || deps.Sender == nil {
		return
	}

	md := fmt.Sprintf(`## Booking sync failed

The scheduled Cal.com booking sync did not complete.

- **Started:** %s
- **Error:** %s

Assignments may be stale until the next successful run. The sync retries on
its regular interval; no action is needed unless this repeats.
`, input.StartedAt.Format(time.RFC1123), input.RunError.Error())

	html, err := renderMarkdown(md)
	if err != nil {
		slog.Error("sync_alert_render_failed", "error", err.Error())
		return
	}

	_, err = deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{deps.AlertTo},
		Subject: "NextGen: booking sync failed",
		HTML:    html,
	})
	if err != nil {
		slog.Error("sync_alert_send_failed", "error", err.Error())
	}
}

func renderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
