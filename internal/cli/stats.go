package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/intentflow/ltm/internal/model"
	"github.com/intentflow/ltm/internal/storage"
	"github.com/intentflow/ltm/internal/timeparse"
)

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
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

	return c.executeWithStore(store)
}

func (c *StatsCommand) executeWithStore(store *storage.SQLiteStore) error {
	rng := timeparse.Resolve(c.Range, time.Now())

	stats, err := store.GetActivityStats(context.Background(), rng.Start, rng.End)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Range string               `json:"range"`
			Stats *model.ActivityStats `json:"stats"`
		}{rng.Label, stats})
	}

	fmt.Printf("Stats for %s\n\n", rng.Label)
	if stats.TotalEvents == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	fmt.Printf("Total tracked: %s across %s events\n\n",
		formatDurationHuman(stats.TotalDuration), formatNumber(stats.TotalEvents))

	if len(stats.TopApps) > 0 {
		fmt.Println("Top apps:")
		for _, app := range stats.TopApps {
			fmt.Printf("  %-24s %10s  (%.1f%%)\n",
				app.AppName, formatDurationHuman(app.Duration), app.Percentage)
		}
		fmt.Println()
	}

	if len(stats.TopCategories) > 0 {
		fmt.Println("By category:")
		for _, cat := range stats.TopCategories {
			fmt.Printf("  %-24s %10s  (%.1f%%)\n",
				cat.CategoryName, formatDurationHuman(cat.Duration), cat.Percentage)
		}
	}
	return nil
}
