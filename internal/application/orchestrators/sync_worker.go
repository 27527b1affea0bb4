package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// StartSyncWorker starts a background goroutine that runs the booking
// reconciler on a fixed interval. Failures are alerted and the worker keeps
// ticking; only closing stopCh ends it.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartSyncWorker(input SyncBookingsInput, deps SyncBookingsDeps, notify NotifySyncFailureDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				started := time.Now()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := ExecuteSyncBookings(ctx, input, deps); err != nil {
					slog.Error("sync_background_run_failed", "error", err.Error())
					ExecuteNotifySyncFailure(ctx, NotifySyncFailureInput{RunError: err, StartedAt: started}, notify)
				}
				cancel()
			case <-stopCh:
				slog.Info("sync_background_worker_stopped")
				return
			}
		}
	}()
}
