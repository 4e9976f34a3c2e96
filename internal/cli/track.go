package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intentflow/ltm/internal/config"
	"github.com/intentflow/ltm/internal/model"
	"github.com/intentflow/ltm/internal/rollup"
	"github.com/intentflow/ltm/internal/storage"
	"github.com/intentflow/ltm/internal/tracker"
)

// observation is one JSON line on stdin.
type observation struct {
	App       string          `json:"app"`
	Title     string          `json:"title"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Metadata  *model.Metadata `json:"metadata,omitempty"`
}

// Execute implements the go-flags Commander interface for TrackCommand.
func (c *TrackCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, c.globals)
	store, db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Rollups run alongside tracking so long sessions keep the tiers
	// within their windows without a separate cron entry.
	sched := rollup.New(store, schedulerConfig(cfg), logger)
	go sched.Run(ctx)

	return c.track(ctx, store, cfg, logger, os.Stdin)
}

func (c *TrackCommand) track(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, logger *slog.Logger, in io.Reader) error {
	mergeGap := time.Duration(cfg.Tracking.MergeGapSeconds) * time.Second
	tr := tracker.New(mergeGap)

	flushEvery := time.Duration(cfg.Tracking.FlushIntervalSeconds) * time.Second
	if c.FlushInterval > 0 {
		flushEvery = time.Duration(c.FlushInterval) * time.Second
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	write := func(rec *model.ActivityRecord) {
		if rec == nil {
			return
		}
		// Final flush may run after ctx is canceled; the write still
		// has to land.
		if err := store.WriteActivity(context.Background(), rec); err != nil {
			logger.Error("write activity", "app", rec.AppName, "error", err)
		}
	}

	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if cur := tr.Current(); cur != nil {
				logger.Info("closing open record on shutdown",
					"app", cur.AppName, "duration", cur.DurationSeconds)
			}
			write(tr.Flush())
			return nil
		case <-ticker.C:
			write(tr.Flush())
		case line, ok := <-lines:
			if !ok {
				write(tr.Flush())
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read observations: %w", err)
				}
				return nil
			}
			if line == "" {
				continue
			}
			var obs observation
			if err := json.Unmarshal([]byte(line), &obs); err != nil {
				logger.Warn("skipping malformed observation", "error", err)
				continue
			}
			ts := time.Now()
			if obs.Timestamp > 0 {
				ts = time.Unix(obs.Timestamp, 0)
			}
			write(tr.Submit(tracker.Event{
				AppName:     obs.App,
				WindowTitle: obs.Title,
				Timestamp:   ts,
				Metadata:    obs.Metadata,
			}))
		}
	}
}
