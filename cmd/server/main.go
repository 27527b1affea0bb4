package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"nextgen/internal/adapters/calcom"
	emailPkg "nextgen/internal/adapters/email"
	web "nextgen/internal/adapters/http"
	"nextgen/internal/adapters/storage"
	assignmentStore "nextgen/internal/adapters/storage/assignment"
	staffStore "nextgen/internal/adapters/storage/staff"
	"nextgen/internal/application/orchestrators"
	"nextgen/internal/application/projections"
	"nextgen/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const staffCacheSize = 256

func main() {
	// Optional .env for local development; the environment wins on conflicts.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("configuration invalid: %v", err)
	}

	dsn := cfg.DB.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	timedDB := storage.NewTimedDB(db)
	assignments := assignmentStore.NewSQLiteStore(timedDB)
	staff, err := staffStore.NewCachedStore(staffStore.NewSQLiteStore(timedDB), staffCacheSize)
	if err != nil {
		log.Fatalf("failed to build staff cache: %v", err)
	}

	engine := orchestrators.ProcessBookingEventDeps{
		AssignmentStore: assignments,
		StaffStore:      staff,
		AdminEmail:      cfg.AdminEmail,
	}

	syncDeps := orchestrators.SyncBookingsDeps{
		Fetcher: calcom.NewClient(cfg.CalCom.BaseURL, cfg.CalCom.APIKey, cfg.CalCom.PageSize),
		Engine:  engine,
	}
	syncInput := orchestrators.SyncBookingsInput{
		DaysBack:  cfg.Sync.DaysBack,
		DaysAhead: cfg.Sync.DaysAhead,
		Source:    calcom.Source,
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		slog.Info("email_sender_configured", "kind", "resend")
	} else {
		sender = emailPkg.NoopSender{}
		slog.Info("email_sender_configured", "kind", "noop")
	}
	notifyDeps := orchestrators.NotifySyncFailureDeps{Sender: sender, AlertTo: cfg.Email.AlertTo}

	if cfg.CalCom.WebhookSecret == "" {
		slog.Warn("webhook_signature_verification_disabled",
			"hint", "set CALCOM_WEBHOOK_SECRET to require signed deliveries")
	}

	server := &web.Server{
		Webhook: &web.WebhookHandler{Secret: cfg.CalCom.WebhookSecret, Engine: engine},
		Sync: func(ctx context.Context) (orchestrators.SyncBookingsResult, error) {
			return orchestrators.ExecuteSyncBookings(ctx, syncInput, syncDeps)
		},
		Roster: projections.GetServiceRosterDeps{AssignmentStore: assignments},
		DB:     db,
	}
	router := web.NewRouter(server)

	// Hourly reconciler backstop for missed or out-of-order webhooks.
	syncStopCh := make(chan struct{})
	orchestrators.StartSyncWorker(syncInput, syncDeps, notifyDeps, cfg.Sync.Interval, syncStopCh)
	defer close(syncStopCh)

	httpServer := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.HTTP.Addr,
			"sync_interval", cfg.Sync.Interval.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown incomplete: %v", err)
	}
}
