package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/intentflow/ltm/internal/config"
	"github.com/intentflow/ltm/internal/rollup"
)

// Execute implements the go-flags Commander interface for RollupCommand.
func (c *RollupCommand) Execute(args []string) error {
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

	sched := rollup.New(store, schedulerConfig(cfg), logger)
	return c.executeWithScheduler(sched)
}

func (c *RollupCommand) executeWithScheduler(sched *rollup.Scheduler) error {
	result, err := sched.Tick(context.Background(), time.Now())
	if err != nil {
		return fmt.Errorf("rollup pass: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Hourly: %d buckets from %s raw records\n",
		result.Hourly.Buckets, formatNumber(result.Hourly.SourcesRemoved))
	fmt.Printf("Daily:  %d buckets from %s hourly summaries\n",
		result.Daily.Buckets, formatNumber(result.Daily.SourcesRemoved))
	if result.Cleaned > 0 {
		fmt.Printf("Retention: %s expired rows removed\n", formatNumber(result.Cleaned))
	}
	return nil
}

func schedulerConfig(cfg *config.Config) rollup.Config {
	return rollup.Config{
		HotWindow:  time.Duration(cfg.Rollup.HotDays) * 24 * time.Hour,
		WarmWindow: time.Duration(cfg.Rollup.WarmDays) * 24 * time.Hour,
		Retention:  time.Duration(cfg.Retention.Days) * 24 * time.Hour,
		Interval:   time.Duration(cfg.Rollup.IntervalHours) * time.Hour,
	}
}
