package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intentflow/ltm/internal/config"
	"github.com/intentflow/ltm/internal/hints"
	"github.com/intentflow/ltm/internal/model"
	"github.com/intentflow/ltm/internal/report"
	"github.com/intentflow/ltm/internal/storage"
	"github.com/intentflow/ltm/internal/timeparse"
)

const queryResultLimit = 500

// Execute implements the go-flags Commander interface for QueryCommand.
func (c *QueryCommand) Execute(args []string) error {
	if len(args) == 0 {
		return errors.New("query requires a question, e.g.: ltm query what songs did I listen to yesterday")
	}

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

	return c.executeWithStore(store, cfg, strings.Join(args, " "))
}

func (c *QueryCommand) executeWithStore(store *storage.SQLiteStore, cfg *config.Config, query string) error {
	ctx := context.Background()
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute

	if !c.NoCache && ttl > 0 {
		if cached, err := store.CacheGet(ctx, query, ttl); err == nil {
			fmt.Print(string(cached))
			return nil
		}
	}

	rng := timeparse.Resolve(query, time.Now())
	h := hints.Extract(query)

	items, err := collectQueryItems(ctx, store, rng, h)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	text := report.Build(rng.Label, items)
	fmt.Print(text)

	if !c.NoCache && ttl > 0 {
		if err := store.CachePut(ctx, query, []byte(text)); err != nil {
			return fmt.Errorf("cache result: %w", err)
		}
	}
	return nil
}

// collectQueryItems picks the narrowest data source the hints allow. With
// keyword or category hints it searches raw records and folds in the
// matching rolled-up summaries, so a hinted query still sees the part of
// the window that rollup already moved out of the hot tier. Without hints
// it reads the full tiered timeline for the range.
func collectQueryItems(ctx context.Context, store *storage.SQLiteStore, rng timeparse.Range, h hints.Hints) ([]model.TimelineItem, error) {
	if len(h.Keywords) == 0 && len(h.Categories) == 0 {
		return store.ReadRange(ctx, rng.Start, rng.End)
	}

	records, err := store.SearchActivities(ctx, storage.SearchQuery{
		Keywords:    h.Keywords,
		CategoryIDs: h.Categories,
		Start:       rng.Start,
		End:         rng.End,
		Limit:       queryResultLimit,
	})
	if err != nil {
		return nil, err
	}

	var items []model.TimelineItem
	for i := range records {
		items = append(items, model.TimelineItem{
			Provenance: model.ProvenanceRaw,
			Start:      records[i].StartTime,
			End:        records[i].EndTime,
			Record:     &records[i],
		})
	}

	for _, g := range []model.Granularity{model.GranularityHourly, model.GranularityDaily} {
		sums, err := store.GetSummaries(ctx, g, rng.Start, rng.End)
		if err != nil {
			return nil, err
		}
		for i := range sums {
			if !summaryMatchesHints(&sums[i], h) {
				continue
			}
			s0, s1 := sums[i].Span()
			items = append(items, model.TimelineItem{
				Provenance: model.ProvenanceRolledUp,
				Start:      s0,
				End:        s1,
				Summary:    &sums[i],
			})
		}
	}

	// The report timeline reads top to bottom chronologically.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start < items[j].Start })
	return items, nil
}

// summaryMatchesHints mirrors the record-level filter for rolled-up rows:
// a summary qualifies by hinted category or by a keyword appearing in its
// top-apps or top-titles keys.
func summaryMatchesHints(sum *model.Summary, h hints.Hints) bool {
	for _, id := range h.Categories {
		if sum.CategoryID == id {
			return true
		}
	}
	for _, kw := range h.Keywords {
		for _, list := range [][]model.RankedEntry{sum.TopApps, sum.TopTitles} {
			for _, e := range list {
				if strings.Contains(strings.ToLower(e.Key), kw) {
					return true
				}
			}
		}
	}
	return false
}
