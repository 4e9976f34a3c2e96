package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intentflow/ltm/internal/codec"
	"github.com/intentflow/ltm/internal/model"
)

// bucketKey identifies one summary bucket during a rollup pass.
type bucketKey struct {
	date       int64
	hour       int // dailyHour for daily buckets
	categoryID int
}

// rollupSource is the slice of an activity row a rollup needs.
type rollupSource struct {
	id       int64
	appName  string
	title    string
	duration int64
}

// RollupHourly aggregates hot-tier records that ended at or before the
// cutoff into warm-tier hourly summaries and deletes the source rows.
// Records bucket by the local hour of their start time.
//
// Each bucket commits in its own transaction with the source deletion, so
// the pass is idempotent: a crash mid-pass loses no data and re-running
// only processes buckets that still have source rows. Re-aggregating into
// an existing summary merges rather than duplicates.
func (s *SQLiteStore) RollupHourly(ctx context.Context, before int64) (*RollupResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, app_name, window_title, category_id, start_time, duration_seconds
		FROM activities WHERE end_time <= ?
		ORDER BY start_time ASC
	`, before)
	if err != nil {
		return nil, fmt.Errorf("%w: select rollup sources: %v", ErrStoreUnavailable, err)
	}

	buckets := make(map[bucketKey][]rollupSource)
	for rows.Next() {
		var src rollupSource
		var categoryID int
		var start int64
		if err := rows.Scan(&src.id, &src.appName, &src.title, &categoryID, &start, &src.duration); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan rollup source: %w", err)
		}
		key := bucketKey{date: dayStart(start), hour: hourOf(start), categoryID: categoryID}
		buckets[key] = append(buckets[key], src)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	result := &RollupResult{}
	for _, key := range sortedKeys(buckets) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.rollupBucket(ctx, key, buckets[key], result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// sortedKeys orders bucket keys so a pass always processes buckets
// oldest-first and deterministically.
func sortedKeys(buckets map[bucketKey][]rollupSource) []bucketKey {
	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		if keys[i].hour != keys[j].hour {
			return keys[i].hour < keys[j].hour
		}
		return keys[i].categoryID < keys[j].categoryID
	})
	return keys
}

// rollupBucket aggregates one bucket's sources, merges them into any
// existing summary row, and deletes the sources, all in one transaction.
func (s *SQLiteStore) rollupBucket(ctx context.Context, key bucketKey, sources []rollupSource, result *RollupResult) error {
	apps := make(map[string]*model.RankedEntry)
	titles := make(map[string]*model.RankedEntry)
	var total, count int64

	accumulate := func(m map[string]*model.RankedEntry, k string, dur int64) {
		if k == "" {
			return
		}
		if e, ok := m[k]; ok {
			e.Duration += dur
			e.Count++
		} else {
			m[k] = &model.RankedEntry{Key: k, Duration: dur, Count: 1}
		}
	}

	ids := make([]int64, 0, len(sources))
	for _, src := range sources {
		total += src.duration
		count++
		accumulate(apps, src.appName, src.duration)
		accumulate(titles, src.title, src.duration)
		ids = append(ids, src.id)
	}

	topApps := rankedFromMap(apps)
	topTitles := rankedFromMap(titles)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin rollup tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.mergeSummary(ctx, tx, key, total, count, topApps, topTitles, result); err != nil {
		return err
	}

	removed, err := deleteByID(ctx, tx, "activities", ids)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit rollup: %v", ErrStoreUnavailable, err)
	}

	result.Buckets++
	result.SourcesRemoved += removed
	return nil
}

// RollupDaily folds warm-tier hourly summaries for days strictly before
// the cutoff's day into cold-tier daily summaries, then deletes the hourly
// rows. Top lists re-merge with re-summed durations, so an app spread
// thinly across hours can outrank one that spiked in a single hour.
func (s *SQLiteStore) RollupDaily(ctx context.Context, before int64) (*RollupResult, error) {
	cutoffDay := dayStart(before)

	hourly, err := s.scanSummaries(ctx, s.db, model.GranularityHourly, 0, cutoffDay)
	if err != nil {
		return nil, err
	}

	type dayKey struct {
		date       int64
		categoryID int
	}
	type dayAgg struct {
		total   int64
		count   int64
		apps    [][]model.RankedEntry
		titles  [][]model.RankedEntry
		ids     []int64
		skipped int64
	}

	days := make(map[dayKey]*dayAgg)
	var keys []dayKey
	for _, sum := range hourly {
		if sum.Date >= cutoffDay {
			continue
		}
		k := dayKey{date: sum.Date, categoryID: sum.CategoryID}
		agg, ok := days[k]
		if !ok {
			agg = &dayAgg{}
			days[k] = agg
			keys = append(keys, k)
		}
		agg.total += sum.TotalDuration
		agg.count += sum.EventCount
		if sum.TopApps == nil && sum.TopTitles == nil && sum.EventCount > 0 {
			// scanSummaries nils both lists when the blobs were corrupt;
			// the totals still fold in.
			agg.skipped++
		}
		agg.apps = append(agg.apps, sum.TopApps)
		agg.titles = append(agg.titles, sum.TopTitles)
		agg.ids = append(agg.ids, sum.ID)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].categoryID < keys[j].categoryID
	})

	result := &RollupResult{}
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		agg := days[k]

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return result, fmt.Errorf("%w: begin rollup tx: %v", ErrStoreUnavailable, err)
		}

		key := bucketKey{date: k.date, hour: dailyHour, categoryID: k.categoryID}
		err = s.mergeSummary(ctx, tx, key, agg.total, agg.count,
			model.MergeRanked(model.TopN, agg.apps...),
			model.MergeRanked(model.TopN, agg.titles...),
			result)
		if err == nil {
			var removed int64
			removed, err = deleteByID(ctx, tx, "activity_summaries", agg.ids)
			if err == nil {
				err = tx.Commit()
				result.Buckets++
				result.SourcesRemoved += removed
				result.Skipped += agg.skipped
			}
		}
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return result, err
		}
	}
	return result, nil
}

// mergeSummary upserts one summary row, folding the new aggregate into any
// existing row for the same bucket.
func (s *SQLiteStore) mergeSummary(ctx context.Context, tx *sql.Tx, key bucketKey,
	total, count int64, topApps, topTitles []model.RankedEntry, result *RollupResult) error {

	var existingApps, existingTitles []byte
	var existingTotal, existingCount int64
	err := tx.QueryRowContext(ctx, `
		SELECT total_duration, event_count, top_apps, top_titles
		FROM activity_summaries WHERE date = ? AND hour = ? AND category_id = ?
	`, key.date, key.hour, key.categoryID).Scan(&existingTotal, &existingCount, &existingApps, &existingTitles)

	switch {
	case err == sql.ErrNoRows:
		// fresh bucket
	case err != nil:
		return fmt.Errorf("%w: read existing summary: %v", ErrStoreUnavailable, err)
	default:
		total += existingTotal
		count += existingCount

		prevApps, aerr := s.decodeRanked(existingApps)
		prevTitles, terr := s.decodeRanked(existingTitles)
		if aerr != nil || terr != nil {
			if (aerr != nil && !errors.Is(aerr, codec.ErrCorrupt)) ||
				(terr != nil && !errors.Is(terr, codec.ErrCorrupt)) {
				if aerr != nil {
					return aerr
				}
				return terr
			}
			result.Skipped++
		}
		topApps = model.MergeRanked(model.TopN, prevApps, topApps)
		topTitles = model.MergeRanked(model.TopN, prevTitles, topTitles)
	}

	appsBlob, err := s.encodeRanked(topApps)
	if err != nil {
		return err
	}
	titlesBlob, err := s.encodeRanked(topTitles)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity_summaries (date, hour, category_id, total_duration, event_count, top_apps, top_titles, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, hour, category_id) DO UPDATE SET
			total_duration = excluded.total_duration,
			event_count    = excluded.event_count,
			top_apps       = excluded.top_apps,
			top_titles     = excluded.top_titles,
			updated_at     = excluded.updated_at
	`, key.date, key.hour, key.categoryID, total, count, appsBlob, titlesBlob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: upsert summary: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// rankedFromMap flattens an accumulation map into a sorted, truncated list.
func rankedFromMap(m map[string]*model.RankedEntry) []model.RankedEntry {
	entries := make([]model.RankedEntry, 0, len(m))
	for _, e := range m {
		entries = append(entries, *e)
	}
	model.SortRanked(entries)
	if len(entries) > model.TopN {
		entries = entries[:model.TopN]
	}
	return entries
}

// deleteByID deletes rows by primary key in chunks, staying under SQLite's
// bound-parameter limit.
func deleteByID(ctx context.Context, tx *sql.Tx, table string, ids []int64) (int64, error) {
	const chunk = 500
	var removed int64
	for len(ids) > 0 {
		n := len(ids)
		if n > chunk {
			n = chunk
		}
		batch := ids[:n]
		ids = ids[n:]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", n), ",")
		args := make([]interface{}, n)
		for i, id := range batch {
			args[i] = id
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE id IN ("+placeholders+")", args...)
		if err != nil {
			return removed, fmt.Errorf("%w: delete from %s: %v", ErrStoreUnavailable, table, err)
		}
		n64, _ := res.RowsAffected()
		removed += n64
	}
	return removed, nil
}

// Cleanup deletes anything, raw or summarized, that lies entirely at or
// before the cutoff: hot-tier records by end time, warm and cold summaries
// by bucket end. Rollup only moves data down the tiers; this is the one
// place retention actually deletes. With dryRun it only counts.
func (s *SQLiteStore) Cleanup(ctx context.Context, before int64, dryRun bool) (*CleanupResult, error) {
	result := &CleanupResult{DryRun: dryRun}

	targets := []struct {
		table string
		where string
	}{
		{"activities", "end_time <= ?"},
		{"activity_summaries", "CASE WHEN hour < 0 THEN date + 86400 ELSE date + (hour + 1) * 3600 END <= ?"},
	}

	if dryRun {
		for _, t := range targets {
			var n int64
			err := s.db.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM "+t.table+" WHERE "+t.where, before).Scan(&n)
			if err != nil {
				return nil, fmt.Errorf("%w: count expired %s: %v", ErrStoreUnavailable, t.table, err)
			}
			result.Deleted += n
		}
		return result, nil
	}

	for _, t := range targets {
		res, err := s.db.ExecContext(ctx,
			"DELETE FROM "+t.table+" WHERE "+t.where, before)
		if err != nil {
			return nil, fmt.Errorf("%w: delete expired %s: %v", ErrStoreUnavailable, t.table, err)
		}
		n, _ := res.RowsAffected()
		result.Deleted += n
	}

	// Stale cache entries are already invisible to reads; this just bounds
	// table growth.
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM query_cache WHERE created_at <= ?
	`, time.Now().Unix()-cacheGraceSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: prune query cache: %v", ErrStoreUnavailable, err)
	}
	result.CachePruned, _ = res.RowsAffected()
	return result, nil
}

// PurgeAll deletes all activity data: records, summaries, the app
// registry, and the query cache. The seeded categories survive.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM activities",
		"DELETE FROM activity_summaries",
		"DELETE FROM app_registry",
		"DELETE FROM query_cache",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}
