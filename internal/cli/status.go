package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/intentflow/ltm/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string        `json:"version"`
	DatabaseSizeBytes int64         `json:"database_size_bytes"`
	Activities        int64         `json:"activities"`
	HourlySummaries   int64         `json:"hourly_summaries"`
	DailySummaries    int64         `json:"daily_summaries"`
	RegistryApps      int64         `json:"registry_apps"`
	CachedQueries     int64         `json:"cached_queries"`
	OldestTime        string        `json:"oldest_time,omitempty"`
	NewestTime        string        `json:"newest_time,omitempty"`
	TopApps           []appStatJSON `json:"top_apps"`
}

type appStatJSON struct {
	App      string `json:"app"`
	Duration int64  `json:"duration_seconds"`
	Count    int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
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

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(store *storage.SQLiteStore) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(stats)
	}
	return c.printHuman(stats)
}

func (c *StatusCommand) printHuman(stats *storage.StorageStats) error {
	fmt.Println("LTM Status")
	fmt.Println("==========")
	fmt.Printf("Version:          %s\n", c.version)
	fmt.Printf("Database size:    %s\n", formatBytes(stats.DatabaseSizeBytes))
	fmt.Printf("Hot (raw):        %s records\n", formatNumber(stats.ActivityCount))
	fmt.Printf("Warm (hourly):    %s summaries\n", formatNumber(stats.HourlySummaries))
	fmt.Printf("Cold (daily):     %s summaries\n", formatNumber(stats.DailySummaries))
	fmt.Printf("Apps seen:        %s\n", formatNumber(stats.RegistryApps))
	fmt.Printf("Cached queries:   %s\n", formatNumber(stats.CachedQueries))

	if stats.OldestTime > 0 {
		fmt.Printf("Oldest:           %s\n", time.Unix(stats.OldestTime, 0).Local().Format("2006-01-02"))
		fmt.Printf("Newest:           %s\n", time.Unix(stats.NewestTime, 0).Local().Format("2006-01-02"))
	}

	if len(stats.TopApps) > 0 {
		fmt.Println()
		fmt.Println("Top Apps (lifetime):")
		for _, a := range stats.TopApps {
			fmt.Printf("  %-24s %8s  (%.1f%%)\n", a.AppName, formatDurationHuman(a.Duration), a.Percentage)
		}
	}

	return nil
}

func (c *StatusCommand) printJSON(stats *storage.StorageStats) error {
	out := statusJSON{
		Version:           c.version,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		Activities:        stats.ActivityCount,
		HourlySummaries:   stats.HourlySummaries,
		DailySummaries:    stats.DailySummaries,
		RegistryApps:      stats.RegistryApps,
		CachedQueries:     stats.CachedQueries,
		TopApps:           make([]appStatJSON, len(stats.TopApps)),
	}

	if stats.OldestTime > 0 {
		out.OldestTime = time.Unix(stats.OldestTime, 0).UTC().Format(time.RFC3339)
		out.NewestTime = time.Unix(stats.NewestTime, 0).UTC().Format(time.RFC3339)
	}
	for i, a := range stats.TopApps {
		out.TopApps[i] = appStatJSON{App: a.AppName, Duration: a.Duration, Count: a.Count}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
