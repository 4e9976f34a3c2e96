package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/intentflow/ltm/internal/codec"
	"github.com/intentflow/ltm/internal/model"
)

// WriteActivity inserts a closed activity record into the hot tier and
// updates the app registry in the same transaction. The record's ID is
// populated on success.
func (s *SQLiteStore) WriteActivity(ctx context.Context, rec *model.ActivityRecord) error {
	if err := validateRange(rec.StartTime, rec.EndTime); err != nil {
		return err
	}

	meta, err := s.encodeMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.StmtContext(ctx, s.insertActivity).ExecContext(ctx,
		rec.AppName, hashToDB(rec.AppHash), rec.WindowTitle, hashToDB(rec.WindowTitleHash),
		rec.CategoryID, rec.StartTime, rec.EndTime, rec.DurationSeconds, meta,
	)
	if err != nil {
		return fmt.Errorf("%w: insert activity: %v", ErrStoreUnavailable, err)
	}

	_, err = tx.StmtContext(ctx, s.upsertRegistry).ExecContext(ctx,
		hashToDB(rec.AppHash), rec.AppName, rec.CategoryID,
		rec.StartTime, rec.EndTime, rec.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert registry: %v", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStoreUnavailable, err)
	}

	rec.ID, _ = res.LastInsertId()
	return nil
}

// GetActivities returns hot-tier records overlapping [start, end), newest
// first. A record overlaps when it has any time inside the range.
func (s *SQLiteStore) GetActivities(ctx context.Context, start, end int64, limit, offset int) ([]model.ActivityRecord, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, app_name, app_hash, window_title, window_title_hash,
		       category_id, start_time, end_time, duration_seconds, metadata
		FROM activities
		WHERE end_time > ? AND start_time < ?
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?
	`
	return s.scanActivities(ctx, s.db, query, start, end, limit, offset)
}

// SearchActivities filters hot-tier records by keyword and category.
// Keywords match the app name or the window title, case-insensitive, any
// keyword sufficing. A record qualifies if it matches the category filter
// OR any keyword; hints are cast wide, so either signal is enough. An
// empty query degenerates to GetActivities.
func (s *SQLiteStore) SearchActivities(ctx context.Context, q SearchQuery) ([]model.ActivityRecord, error) {
	if err := validateRange(q.Start, q.End); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}

	clauses := []string{"end_time > ?", "start_time < ?"}
	args := []interface{}{q.Start, q.End}

	var match []string
	if len(q.CategoryIDs) > 0 {
		ph := make([]string, len(q.CategoryIDs))
		for i, id := range q.CategoryIDs {
			ph[i] = "?"
			args = append(args, id)
		}
		match = append(match, "category_id IN ("+strings.Join(ph, ", ")+")")
	}

	if len(q.Keywords) > 0 {
		var kw []string
		for _, k := range q.Keywords {
			pattern := "%" + escapeLike(strings.ToLower(k)) + "%"
			kw = append(kw, `(lower(app_name) LIKE ? ESCAPE '\' OR lower(window_title) LIKE ? ESCAPE '\')`)
			args = append(args, pattern, pattern)
		}
		match = append(match, "("+strings.Join(kw, " OR ")+")")
	}

	if len(match) > 0 {
		clauses = append(clauses, "("+strings.Join(match, " OR ")+")")
	}

	query := `
		SELECT id, app_name, app_hash, window_title, window_title_hash,
		       category_id, start_time, end_time, duration_seconds, metadata
		FROM activities
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, q.Limit, q.Offset)

	return s.scanActivities(ctx, s.db, query, args...)
}

// escapeLike escapes LIKE metacharacters in a user-supplied keyword.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// scanActivities executes a query and scans the rows. Rows whose metadata
// blob is corrupt are kept with nil metadata and counted in the log; a
// damaged blob must not hide the record itself.
func (s *SQLiteStore) scanActivities(ctx context.Context, q querier, query string, args ...interface{}) ([]model.ActivityRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query activities: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []model.ActivityRecord
	var corrupt int
	for rows.Next() {
		var rec model.ActivityRecord
		var appHash, titleHash int64
		var meta []byte
		if err := rows.Scan(
			&rec.ID, &rec.AppName, &appHash, &rec.WindowTitle, &titleHash,
			&rec.CategoryID, &rec.StartTime, &rec.EndTime, &rec.DurationSeconds, &meta,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.AppHash = hashFromDB(appHash)
		rec.WindowTitleHash = hashFromDB(titleHash)

		rec.Metadata, err = s.decodeMetadata(meta)
		if err != nil {
			if !errors.Is(err, codec.ErrCorrupt) {
				return nil, err
			}
			corrupt++
			rec.Metadata = nil
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if corrupt > 0 {
		s.logger.Warn("skipped corrupt metadata blobs", "count", corrupt)
	}

	if records == nil {
		records = []model.ActivityRecord{}
	}
	return records, nil
}

// GetActivityStats aggregates hot-tier records in [start, end) into total
// time plus top apps and categories by duration.
func (s *SQLiteStore) GetActivityStats(ctx context.Context, start, end int64) (*model.ActivityStats, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	stats := &model.ActivityStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_seconds), 0), COUNT(*)
		FROM activities WHERE end_time > ? AND start_time < ?
	`, start, end).Scan(&stats.TotalDuration, &stats.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("%w: total duration: %v", ErrStoreUnavailable, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT app_name, SUM(duration_seconds) AS dur, COUNT(*)
		FROM activities WHERE end_time > ? AND start_time < ?
		GROUP BY app_hash ORDER BY dur DESC, app_name ASC LIMIT ?
	`, start, end, model.TopN)
	if err != nil {
		return nil, fmt.Errorf("%w: top apps: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.AppStat
		if err := rows.Scan(&a.AppName, &a.Duration, &a.Count); err != nil {
			return nil, err
		}
		if stats.TotalDuration > 0 {
			a.Percentage = float64(a.Duration) / float64(stats.TotalDuration) * 100
		}
		stats.TopApps = append(stats.TopApps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := s.db.QueryContext(ctx, `
		SELECT category_id, SUM(duration_seconds) AS dur, COUNT(*)
		FROM activities WHERE end_time > ? AND start_time < ?
		GROUP BY category_id ORDER BY dur DESC, category_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: top categories: %v", ErrStoreUnavailable, err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var c model.CategoryStat
		if err := catRows.Scan(&c.CategoryID, &c.Duration, &c.Count); err != nil {
			return nil, err
		}
		c.CategoryName = model.CategoryName(c.CategoryID)
		if stats.TotalDuration > 0 {
			c.Percentage = float64(c.Duration) / float64(stats.TotalDuration) * 100
		}
		stats.TopCategories = append(stats.TopCategories, c)
	}
	return stats, catRows.Err()
}
