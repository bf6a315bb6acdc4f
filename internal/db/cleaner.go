package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger removes records created before a cutoff.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartRetentionCleaner purges deliveries older than retention every
// interval until ctx is done.
func StartRetentionCleaner(
	ctx context.Context,
	store Purger,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				rows, err := store.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					log.Error("failed to purge expired deliveries", zap.Error(err))
					continue
				}
				if rows > 0 {
					log.Info("purged expired deliveries", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
