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

// Execute implements the go-flags Commander interface for ActivitiesCommand.
func (c *ActivitiesCommand) Execute(args []string) error {
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

func (c *ActivitiesCommand) executeWithStore(store *storage.SQLiteStore) error {
	rng := timeparse.Resolve(c.Range, time.Now())

	records, err := store.GetActivities(context.Background(), rng.Start, rng.End, c.Limit, c.Offset)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printActivitiesJSON(rng, records)
	}
	return c.printHuman(rng, records)
}

func (c *ActivitiesCommand) printHuman(rng timeparse.Range, records []model.ActivityRecord) error {
	if len(records) == 0 {
		fmt.Printf("No activity recorded for %s\n", rng.Label)
		return nil
	}

	fmt.Printf("%d records for %s\n\n", len(records), rng.Label)
	for i, rec := range records {
		ts := time.Unix(rec.StartTime, 0).Local().Format("2006-01-02 15:04")
		title := rec.WindowTitle
		if title == "" {
			title = "(no title)"
		}
		fmt.Printf("%d. %s  %s\n", i+1+c.Offset, ts, rec.AppName)
		fmt.Printf("   %s\n", title)
		fmt.Printf("   %s · %s\n", formatDurationHuman(rec.DurationSeconds), model.CategoryName(rec.CategoryID))
		if i < len(records)-1 {
			fmt.Println()
		}
	}
	return nil
}

type activityJSON struct {
	ID        int64  `json:"id"`
	App       string `json:"app"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  int64  `json:"duration_seconds"`
}

func printActivitiesJSON(rng timeparse.Range, records []model.ActivityRecord) error {
	out := struct {
		Range   string         `json:"range"`
		Count   int            `json:"count"`
		Records []activityJSON `json:"records"`
	}{
		Range:   rng.Label,
		Count:   len(records),
		Records: make([]activityJSON, len(records)),
	}
	for i, rec := range records {
		out.Records[i] = activityJSON{
			ID:        rec.ID,
			App:       rec.AppName,
			Title:     rec.WindowTitle,
			Category:  model.CategoryName(rec.CategoryID),
			StartTime: time.Unix(rec.StartTime, 0).UTC().Format(time.RFC3339),
			EndTime:   time.Unix(rec.EndTime, 0).UTC().Format(time.RFC3339),
			Duration:  rec.DurationSeconds,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
