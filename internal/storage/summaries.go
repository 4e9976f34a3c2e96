package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/intentflow/ltm/internal/codec"
	"github.com/intentflow/ltm/internal/model"
)

// querier abstracts *sql.DB and *sql.Tx so reads can run either directly
// or inside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// dailyHour marks a daily summary row in the hour column.
const dailyHour = -1

// GetSummaries returns summaries of the given granularity whose bucket
// overlaps [start, end), ordered by bucket start ascending.
func (s *SQLiteStore) GetSummaries(ctx context.Context, g model.Granularity, start, end int64) ([]model.Summary, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.scanSummaries(ctx, s.db, g, start, end)
}

func (s *SQLiteStore) scanSummaries(ctx context.Context, q querier, g model.Granularity, start, end int64) ([]model.Summary, error) {
	var hourClause string
	var span int64
	if g == model.GranularityDaily {
		hourClause = "hour = -1"
		span = 24 * 3600
	} else {
		hourClause = "hour >= 0"
		span = 3600
	}

	// Overlap test on the bucket span. Hourly bucket start is
	// date + hour*3600; daily bucket start is the date itself.
	query := `
		SELECT id, date, hour, category_id, total_duration, event_count, top_apps, top_titles
		FROM activity_summaries
		WHERE ` + hourClause + `
		  AND date + CASE WHEN hour < 0 THEN 0 ELSE hour * 3600 END + ? > ?
		  AND date + CASE WHEN hour < 0 THEN 0 ELSE hour * 3600 END < ?
		ORDER BY date ASC, hour ASC, category_id ASC
	`
	rows, err := q.QueryContext(ctx, query, span, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: query summaries: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var sums []model.Summary
	var corrupt int
	for rows.Next() {
		var sum model.Summary
		var hour int
		var apps, titles []byte
		if err := rows.Scan(&sum.ID, &sum.Date, &hour, &sum.CategoryID,
			&sum.TotalDuration, &sum.EventCount, &apps, &titles); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Granularity = g
		sum.Hour = hour

		sum.TopApps, err = s.decodeRanked(apps)
		if err == nil {
			sum.TopTitles, err = s.decodeRanked(titles)
		}
		if err != nil {
			// A summary with an unreadable top list still carries valid
			// totals; the row is skipped only for presentation data.
			if !errors.Is(err, codec.ErrCorrupt) {
				return nil, err
			}
			corrupt++
			sum.TopApps = nil
			sum.TopTitles = nil
		}

		sums = append(sums, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if corrupt > 0 {
		s.logger.Warn("skipped corrupt summary top lists", "count", corrupt, "granularity", g.String())
	}
	if sums == nil {
		sums = []model.Summary{}
	}
	return sums, nil
}

// ReadRange returns everything known about [start, end) across all three
// tiers as a single timeline ordered by start time: raw records from the
// hot tier, hourly summaries from the warm tier, daily summaries from the
// cold tier. All three reads share one transaction so a concurrent rollup
// can neither double-count a span nor drop it.
func (s *SQLiteStore) ReadRange(ctx context.Context, start, end int64) ([]model.TimelineItem, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: begin read tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	records, err := s.scanActivities(ctx, tx, `
		SELECT id, app_name, app_hash, window_title, window_title_hash,
		       category_id, start_time, end_time, duration_seconds, metadata
		FROM activities
		WHERE end_time > ? AND start_time < ?
		ORDER BY start_time ASC
	`, start, end)
	if err != nil {
		return nil, err
	}

	hourly, err := s.scanSummaries(ctx, tx, model.GranularityHourly, start, end)
	if err != nil {
		return nil, err
	}
	daily, err := s.scanSummaries(ctx, tx, model.GranularityDaily, start, end)
	if err != nil {
		return nil, err
	}

	items := make([]model.TimelineItem, 0, len(records)+len(hourly)+len(daily))
	for i := range records {
		rec := records[i]
		items = append(items, model.TimelineItem{
			Provenance: model.ProvenanceRaw,
			Start:      rec.StartTime,
			End:        rec.EndTime,
			Record:     &rec,
		})
	}
	for _, sums := range [][]model.Summary{hourly, daily} {
		for i := range sums {
			sum := sums[i]
			s0, s1 := sum.Span()
			items = append(items, model.TimelineItem{
				Provenance: model.ProvenanceRolledUp,
				Start:      s0,
				End:        s1,
				Summary:    &sum,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Start != items[j].Start {
			return items[i].Start < items[j].Start
		}
		return items[i].End < items[j].End
	})

	return items, nil
}
