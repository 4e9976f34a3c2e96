// Package rollup drives the tiered store's aging: hot records roll into
// hourly summaries after the hot window, hourly summaries fold into daily
// summaries after the warm window, and anything past retention gets
// deleted. The store does the aggregation; this package decides when.
package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/intentflow/ltm/internal/storage"
)

// Store is the slice of the storage API the scheduler needs.
type Store interface {
	RollupHourly(ctx context.Context, before int64) (*storage.RollupResult, error)
	RollupDaily(ctx context.Context, before int64) (*storage.RollupResult, error)
	Cleanup(ctx context.Context, before int64, dryRun bool) (*storage.CleanupResult, error)
	InvalidateCache(ctx context.Context) error
}

// Config holds the tier windows and the tick cadence.
type Config struct {
	HotWindow  time.Duration // raw records kept this long
	WarmWindow time.Duration // hourly summaries kept this long
	Retention  time.Duration // anything older than this is deleted; 0 keeps forever
	Interval   time.Duration // how often Run ticks
}

// DefaultConfig mirrors the default tier layout: one week hot, thirty days
// warm, daily summaries kept for a year.
func DefaultConfig() Config {
	return Config{
		HotWindow:  7 * 24 * time.Hour,
		WarmWindow: 30 * 24 * time.Hour,
		Retention:  365 * 24 * time.Hour,
		Interval:   time.Hour,
	}
}

// TickResult reports one full pass.
type TickResult struct {
	Hourly  *storage.RollupResult
	Daily   *storage.RollupResult
	Cleaned int64
}

// Scheduler runs rollup passes. Concurrent Tick calls coalesce into a
// single pass through singleflight; the duplicate caller gets the shared
// result instead of racing the aggregation.
type Scheduler struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	group  singleflight.Group
}

// New returns a Scheduler. Zero-value windows in cfg fall back to
// DefaultConfig's.
func New(store Store, cfg Config, logger *slog.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.HotWindow <= 0 {
		cfg.HotWindow = def.HotWindow
	}
	if cfg.WarmWindow <= 0 {
		cfg.WarmWindow = def.WarmWindow
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: store, cfg: cfg, logger: logger}
}

// Tick performs one rollup pass relative to now: hot past the hot window
// rolls hourly, warm past the warm window rolls daily, cold past retention
// is deleted. Overlapping calls share one pass.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (*TickResult, error) {
	v, err, shared := s.group.Do("tick", func() (interface{}, error) {
		return s.pass(ctx, now)
	})
	if shared {
		s.logger.Debug("rollup tick coalesced with concurrent caller")
	}
	if err != nil {
		return nil, err
	}
	return v.(*TickResult), nil
}

func (s *Scheduler) pass(ctx context.Context, now time.Time) (*TickResult, error) {
	result := &TickResult{}
	started := time.Now()

	hourly, err := s.store.RollupHourly(ctx, now.Add(-s.cfg.HotWindow).Unix())
	if err != nil {
		return nil, fmt.Errorf("hourly rollup: %w", err)
	}
	result.Hourly = hourly

	daily, err := s.store.RollupDaily(ctx, now.Add(-s.cfg.WarmWindow).Unix())
	if err != nil {
		return nil, fmt.Errorf("daily rollup: %w", err)
	}
	result.Daily = daily

	if s.cfg.Retention > 0 {
		cleaned, err := s.store.Cleanup(ctx, now.Add(-s.cfg.Retention).Unix(), false)
		if err != nil {
			return nil, fmt.Errorf("retention cleanup: %w", err)
		}
		result.Cleaned = cleaned.Deleted
	}

	// A pass that moved rows rewrote the history cached reports were built
	// from, so they cannot be trusted past this point.
	if hourly.Buckets > 0 || daily.Buckets > 0 || result.Cleaned > 0 {
		if err := s.store.InvalidateCache(ctx); err != nil {
			return nil, fmt.Errorf("invalidate cache: %w", err)
		}
	}

	s.logger.Info("rollup pass complete",
		"hourly_buckets", hourly.Buckets,
		"daily_buckets", daily.Buckets,
		"sources_removed", hourly.SourcesRemoved+daily.SourcesRemoved,
		"cleaned", result.Cleaned,
		"elapsed", time.Since(started))
	return result, nil
}

// Run ticks on the configured interval until ctx is cancelled. The first
// pass runs immediately so a process that only stays up briefly still ages
// its backlog.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.Tick(ctx, time.Now()); err != nil {
		s.logger.Error("rollup pass failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(ctx, time.Now()); err != nil {
				// Keep ticking; a locked database now may be free later.
				s.logger.Error("rollup pass failed", "error", err)
			}
		}
	}
}
