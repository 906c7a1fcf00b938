package tasks

import (
	"context"
	"time"

	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/storage"
)

// StoreCleanup periodically drops durable store rows that have not been
// written for longer than the retention period. A submission log that old
// no longer affects rate limiting and its visitor cookie has expired.
type StoreCleanup struct {
	store     storage.Purger
	retention time.Duration
	interval  time.Duration
}

// NewStoreCleanup creates a new store cleanup task
func NewStoreCleanup(store storage.Purger, retention, interval time.Duration) *StoreCleanup {
	return &StoreCleanup{
		store:     store,
		retention: retention,
		interval:  interval,
	}
}

// Start begins the cleanup task in the background until ctx is done
func (sc *StoreCleanup) Start(ctx context.Context) {
	go sc.runPeriodically(ctx)
}

// runPeriodically runs the cleanup task at regular intervals
func (sc *StoreCleanup) runPeriodically(ctx context.Context) {
	// Run immediately on startup
	sc.Cleanup(ctx, time.Now())

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sc.Cleanup(ctx, now)
		}
	}
}

// Cleanup performs one purge relative to now and returns the number of rows removed
func (sc *StoreCleanup) Cleanup(ctx context.Context, now time.Time) int64 {
	logger := logging.GetGlobalLogger()

	removed, err := sc.store.PurgeOlderThan(ctx, now.Add(-sc.retention))
	if err != nil {
		logger.Error("Store cleanup failed: %v", err)
		return 0
	}
	logger.Info("Store cleanup removed %d stale rows", removed)
	return removed
}
