package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nextgen/internal/application/orchestrators"
	"nextgen/internal/application/projections"
)

// Pinger checks storage liveness for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server bundles the HTTP surface of the sync pipeline: the webhook
// receiver, the reconciler trigger, the roster read API, and health.
type Server struct {
	Webhook *WebhookHandler
	Sync    SyncRunner
	Roster  projections.GetServiceRosterDeps
	DB      Pinger
}

// SyncRunner triggers one reconciler run. Satisfied by the closure main
// wires around ExecuteSyncBookings.
type SyncRunner func(ctx context.Context) (orchestrators.SyncBookingsResult, error)

// NewRouter builds the gin engine with all routes registered.
// PRE: s carries wired handlers
// POST: Returns a router that answers 405 on wrong methods
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.HandleMethodNotAllowed = true

	router.GET("/health", s.handleHealth)
	router.GET("/api/webhooks/calcom", s.Webhook.HandleProbe)
	router.POST("/api/webhooks/calcom", s.Webhook.HandleEvent)
	router.POST("/api/sync/bookings", s.handleSync)
	router.GET("/api/roster", s.handleRoster)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.DB != nil {
		if err := s.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSync(c *gin.Context) {
	result, err := s.Sync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": result.Processed,
		"synced":    result.Synced,
		"deleted":   result.Deleted,
		"skipped":   result.Skipped,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoster(c *gin.Context) {
	input := projections.GetServiceRosterInput{
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	}
	// Default window: today through four weeks out.
	if input.StartDate == "" && input.EndDate == "" {
		now := time.Now()
		input.StartDate = now.Format("2006-01-02")
		input.EndDate = now.AddDate(0, 0, 28).Format("2006-01-02")
	}

	result, err := projections.ExecuteGetServiceRoster(c.Request.Context(), input, s.Roster)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
