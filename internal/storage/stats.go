package storage

import (
	"context"
	"fmt"

	"github.com/intentflow/ltm/internal/model"
)

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*StorageStats, error) {
	stats := &StorageStats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM activities", &stats.ActivityCount},
		{"SELECT COUNT(*) FROM activity_summaries WHERE hour >= 0", &stats.HourlySummaries},
		{"SELECT COUNT(*) FROM activity_summaries WHERE hour = -1", &stats.DailySummaries},
		{"SELECT COUNT(*) FROM app_registry", &stats.RegistryApps},
		{"SELECT COUNT(*) FROM query_cache", &stats.CachedQueries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, c.query, err)
		}
	}

	// Oldest and newest tracked time across tiers. Summaries may hold
	// older data than any surviving raw record.
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MIN(t), 0), COALESCE(MAX(t), 0) FROM (
			SELECT MIN(start_time) AS t FROM activities
			UNION ALL
			SELECT MAX(end_time) FROM activities
			UNION ALL
			SELECT MIN(date) FROM activity_summaries
			UNION ALL
			SELECT MAX(date + CASE WHEN hour < 0 THEN 86400 ELSE (hour + 1) * 3600 END) FROM activity_summaries
		) WHERE t IS NOT NULL
	`).Scan(&stats.OldestTime, &stats.NewestTime)
	if err != nil {
		return nil, fmt.Errorf("%w: time range: %v", ErrStoreUnavailable, err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	// Top apps by lifetime duration come from the registry, which sees
	// every record once regardless of later rollups.
	var lifetime int64
	err = s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_duration), 0) FROM app_registry").Scan(&lifetime)
	if err != nil {
		return nil, fmt.Errorf("%w: lifetime duration: %v", ErrStoreUnavailable, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT app_name, total_duration, usage_count
		FROM app_registry ORDER BY total_duration DESC, app_name ASC LIMIT ?
	`, model.TopN)
	if err != nil {
		return nil, fmt.Errorf("%w: top apps: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.AppStat
		if err := rows.Scan(&a.AppName, &a.Duration, &a.Count); err != nil {
			return nil, err
		}
		stats.TopApps = append(stats.TopApps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range stats.TopApps {
		if lifetime > 0 {
			stats.TopApps[i].Percentage = float64(stats.TopApps[i].Duration) / float64(lifetime) * 100
		}
	}

	return stats, nil
}
