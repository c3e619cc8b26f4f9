package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/state"
)

const maxBackoff = 30 * time.Second

// StartRefresher launches a background goroutine that reloads every section
// into the store at the given cadence, backing off while loads fail. A
// non-positive interval disables it. It returns immediately.
func StartRefresher(ctx context.Context, store *state.Store, sections []browse.Section, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 || len(sections) == 0 {
		return
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, sections, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// refresh reloads every section. A round that outlives an identity change
// stops without touching the store.
func refresh(ctx context.Context, store *state.Store, sections []browse.Section, logger *slog.Logger) {
	gen := store.Generation()
	for _, s := range sections {
		if ctx.Err() != nil {
			return
		}
		entries, err := s.Load(ctx)
		if !store.UpdateAt(gen, s.Relation(), entries, err) {
			logger.Debug("refresh dropped after store reset", "relation", s.Relation())
			return
		}
		if err != nil {
			logger.Warn("collection refresh failed", "relation", s.Relation(), "error", err)
			continue
		}
		logger.Debug("collection refreshed", "relation", s.Relation(), "items", len(entries))
	}
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
// Intervals already above the cap are left alone.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	backoff := base
	for i := 0; i < failures && backoff < maxBackoff; i++ {
		backoff *= 2
	}
	return min(backoff, maxBackoff)
}
