package core

// scheduler.go runs history retention in the background: entries older
// than the retention window are purged on a fixed interval. Failures are
// logged and retried on the next tick; they never stop the service.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the history retention scheduler.
type RetentionConfig struct {
	MaxAge        time.Duration // Entries older than this are purged (default: 720h)
	CheckInterval time.Duration // How often to purge (default: 1h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = 720 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Hour
	}
	return c
}

// StartRetentionScheduler purges expired history immediately, then every
// CheckInterval, until ctx is cancelled. It blocks; run it in a goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history retention scheduler started",
		"max_age", cfg.MaxAge.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	s.purgeHistory(ctx, cfg.MaxAge, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention scheduler stopped")
			return
		case now := <-ticker.C:
			s.purgeHistory(ctx, cfg.MaxAge, now)
		}
	}
}

// purgeHistory performs one purge cycle.
func (s *Service) purgeHistory(ctx context.Context, maxAge time.Duration, now time.Time) int64 {
	start := time.Now()
	purged, err := s.history.Purge(ctx, now.Add(-maxAge))
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return 0
	}
	slog.Debug("history purged",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
