package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nextgen/internal/adapters/calcom"
	"nextgen/internal/application/orchestrators"
	"nextgen/internal/domain/booking"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body,
// computed with the webhook secret configured in Cal.com.
const SignatureHeader = "X-Cal-Signature-256"

// WebhookHandler receives booking lifecycle notifications and hands the
// normalized events to the processing engine.
type WebhookHandler struct {
	Secret string // empty disables signature verification
	Engine orchestrators.ProcessBookingEventDeps
}

// HandleProbe answers the liveness check the scheduling system issues
// when a webhook subscription is registered.
func (h *WebhookHandler) HandleProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "active",
		"message": "Cal.com webhook endpoint is reachable",
	})
}

// HandleEvent verifies, decodes and dispatches one webhook delivery.
// POST: Returns 200 for every delivery that was understood, including
// pings and events dropped as unmappable; 401 only on signature
// mismatch, 500 only when processing failed and a retry could succeed
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed", "message": err.Error()})
		return
	}

	if h.Secret != "" && !verifySignature(body, c.GetHeader(SignatureHeader), h.Secret) {
		slog.Warn("webhook_signature_rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	env, err := calcom.DecodeEnvelope(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid payload", "message": err.Error()})
		return
	}

	kind := booking.EventKind(env.TriggerEvent)
	if kind == "" || kind == booking.EventPing {
		c.JSON(http.StatusOK, ackBody(env.TriggerEvent))
		return
	}

	b, err := calcom.NormalizeBooking(env.Payload)
	if err != nil {
		// A payload we cannot make sense of will not improve on redelivery;
		// acknowledge it so the subscription stays healthy.
		if errors.Is(err, calcom.ErrMissingUID) {
			slog.Warn("webhook_payload_dropped", "event", env.TriggerEvent, "reason", err.Error())
			c.JSON(http.StatusOK, ackBody(env.TriggerEvent))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid payload", "message": err.Error()})
		return
	}

	// Cancellations and rejections act on the uid alone; only events that
	// place a booking on the calendar need a schedule.
	if b.Start.IsZero() && (kind == booking.EventCreated || kind == booking.EventRescheduled) {
		slog.Warn("webhook_payload_dropped", "event", env.TriggerEvent,
			"booking_uid", b.UID, "reason", "no start time")
		c.JSON(http.StatusOK, ackBody(env.TriggerEvent))
		return
	}

	input := orchestrators.ProcessBookingEventInput{
		Kind:    kind,
		Booking: b,
		Source:  calcom.Source,
	}
	if err := orchestrators.ExecuteProcessBookingEvent(c.Request.Context(), input, h.Engine); err != nil {
		slog.Error("webhook_processing_failed", "event", env.TriggerEvent, "booking_uid", b.UID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ackBody(env.TriggerEvent))
}

func ackBody(event string) gin.H {
	return gin.H{
		"received":  true,
		"event":     event,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func verifySignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}
