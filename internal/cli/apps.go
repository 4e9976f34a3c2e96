package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/intentflow/ltm/internal/model"
	"github.com/intentflow/ltm/internal/storage"
)

// Execute implements the go-flags Commander interface for AppsCommand.
func (c *AppsCommand) Execute(args []string) error {
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

func (c *AppsCommand) executeWithStore(store *storage.SQLiteStore) error {
	ctx := context.Background()

	for _, pair := range c.SetName {
		app, name, ok := strings.Cut(pair, "=")
		if !ok || app == "" || name == "" {
			return fmt.Errorf("invalid --set-name value %q, expected APP=NAME", pair)
		}
		if err := store.SetDisplayName(ctx, app, name); err != nil {
			return err
		}
		fmt.Printf("Display name for %q set to %q\n", app, name)
	}
	if len(c.SetName) > 0 {
		return nil
	}

	entries, err := store.GetRegistry(ctx)
	if err != nil {
		return fmt.Errorf("list apps: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No apps recorded yet.")
		return nil
	}

	fmt.Printf("%d apps\n\n", len(entries))
	fmt.Printf("%-28s %-14s %12s %8s  %s\n", "APP", "CATEGORY", "TOTAL", "USES", "LAST SEEN")
	for _, e := range entries {
		name := e.AppName
		if e.DisplayName != "" {
			name = fmt.Sprintf("%s (%s)", e.DisplayName, e.AppName)
		}
		fmt.Printf("%-28s %-14s %12s %8s  %s\n",
			name,
			model.CategoryName(e.CategoryID),
			formatDurationHuman(e.TotalDuration),
			formatNumber(e.UsageCount),
			time.Unix(e.LastSeen, 0).Local().Format("2006-01-02 15:04"))
	}
	return nil
}
