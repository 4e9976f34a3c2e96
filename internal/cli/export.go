package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/intentflow/ltm/internal/model"
	"github.com/intentflow/ltm/internal/storage"
	"github.com/intentflow/ltm/internal/timeparse"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
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

	w := io.Writer(os.Stdout)
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return c.executeWithStore(store, w)
}

// exportFormatVersion identifies the envelope layout for downstream
// consumers.
const exportFormatVersion = 1

type exportItem struct {
	Provenance string         `json:"provenance"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Record     *exportRecord  `json:"record,omitempty"`
	Summary    *exportSummary `json:"summary,omitempty"`
}

type exportRecord struct {
	App      string          `json:"app"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Duration int64           `json:"duration_seconds"`
	Metadata *model.Metadata `json:"metadata,omitempty"`
}

type exportSummary struct {
	Category  string              `json:"category"`
	Duration  int64               `json:"duration_seconds"`
	Events    int64               `json:"event_count"`
	TopApps   []model.RankedEntry `json:"top_apps,omitempty"`
	TopTitles []model.RankedEntry `json:"top_titles,omitempty"`
}

func (c *ExportCommand) executeWithStore(store *storage.SQLiteStore, w io.Writer) error {
	rng := timeparse.Resolve(c.Range, time.Now())

	items, err := store.ReadRange(context.Background(), rng.Start, rng.End)
	if err != nil {
		return fmt.Errorf("export range: %w", err)
	}

	out := struct {
		Version  int          `json:"version"`
		Range    string       `json:"range"`
		Start    string       `json:"start"`
		End      string       `json:"end"`
		Exported string       `json:"exported_at"`
		Items    []exportItem `json:"items"`
	}{
		Version:  exportFormatVersion,
		Range:    rng.Label,
		Start:    time.Unix(rng.Start, 0).UTC().Format(time.RFC3339),
		End:      time.Unix(rng.End, 0).UTC().Format(time.RFC3339),
		Exported: time.Now().UTC().Format(time.RFC3339),
		Items:    make([]exportItem, len(items)),
	}

	for i, item := range items {
		ei := exportItem{
			Provenance: item.Provenance.String(),
			Start:      time.Unix(item.Start, 0).UTC().Format(time.RFC3339),
			End:        time.Unix(item.End, 0).UTC().Format(time.RFC3339),
		}
		if item.Record != nil {
			ei.Record = &exportRecord{
				App:      item.Record.AppName,
				Title:    item.Record.WindowTitle,
				Category: model.CategoryName(item.Record.CategoryID),
				Duration: item.Record.DurationSeconds,
				Metadata: item.Record.Metadata,
			}
		}
		if item.Summary != nil {
			ei.Summary = &exportSummary{
				Category:  model.CategoryName(item.Summary.CategoryID),
				Duration:  item.Summary.TotalDuration,
				Events:    item.Summary.EventCount,
				TopApps:   item.Summary.TopApps,
				TopTitles: item.Summary.TopTitles,
			}
		}
		out.Items[i] = ei
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
