package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/intentflow/ltm/internal/storage"
)

// Execute implements the go-flags Commander interface for CleanupCommand.
func (c *CleanupCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(cfg, newLogger(cfg, c.globals))
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		retention, err = parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than: %w", err)
		}
	}
	if retention <= 0 {
		return fmt.Errorf("retention is disabled; pass --older-than to clean up anyway")
	}

	return c.executeWithStore(store, retention)
}

func (c *CleanupCommand) executeWithStore(store *storage.SQLiteStore, retention time.Duration) error {
	before := time.Now().Add(-retention).Unix()

	result, err := store.Cleanup(context.Background(), before, c.DryRun)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	if result.DryRun {
		fmt.Printf("Would delete %s records and summaries older than %s\n",
			formatNumber(result.Deleted), time.Unix(before, 0).Local().Format("2006-01-02"))
		return nil
	}
	fmt.Printf("Deleted %s records and summaries older than %s\n",
		formatNumber(result.Deleted), time.Unix(before, 0).Local().Format("2006-01-02"))
	if result.CachePruned > 0 {
		fmt.Printf("Pruned %s stale cache entries\n", formatNumber(result.CachePruned))
	}
	return nil
}
