package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/intentflow/ltm/internal/model"
)

// GetRegistry returns every app ever seen, most recently used first.
// Registry rows outlive the records that created them, so the list stays
// complete even after rollup has consumed the raw history.
func (s *SQLiteStore) GetRegistry(ctx context.Context) ([]model.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT app_hash, app_name, display_name, category_id,
		       first_seen, last_seen, usage_count, total_duration
		FROM app_registry
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query registry: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []model.RegistryEntry
	for rows.Next() {
		var e model.RegistryEntry
		var hash int64
		if err := rows.Scan(&hash, &e.AppName, &e.DisplayName, &e.CategoryID,
			&e.FirstSeen, &e.LastSeen, &e.UsageCount, &e.TotalDuration); err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		e.AppHash = hashFromDB(hash)
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []model.RegistryEntry{}
	}
	return entries, rows.Err()
}

// LookupApp resolves a single registry entry by app name.
func (s *SQLiteStore) LookupApp(ctx context.Context, appName string) (*model.RegistryEntry, error) {
	var e model.RegistryEntry
	var hash int64
	err := s.db.QueryRowContext(ctx, `
		SELECT app_hash, app_name, display_name, category_id,
		       first_seen, last_seen, usage_count, total_duration
		FROM app_registry WHERE app_hash = ?
	`, hashToDB(model.HashString(appName))).Scan(
		&hash, &e.AppName, &e.DisplayName, &e.CategoryID,
		&e.FirstSeen, &e.LastSeen, &e.UsageCount, &e.TotalDuration,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: app %q", ErrNotFound, appName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup app: %v", ErrStoreUnavailable, err)
	}
	e.AppHash = hashFromDB(hash)
	return &e, nil
}

// SetDisplayName overrides the display name shown for an app.
func (s *SQLiteStore) SetDisplayName(ctx context.Context, appName, displayName string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_registry SET display_name = ? WHERE app_hash = ?
	`, displayName, hashToDB(model.HashString(appName)))
	if err != nil {
		return fmt.Errorf("%w: set display name: %v", ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: app %q", ErrNotFound, appName)
	}
	return nil
}
