package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/intentflow/ltm/internal/model"
)

// migrateV001 creates the initial schema: the hot activities table, the
// shared summary table for the warm and cold tiers, the category list, the
// app registry, and the query cache. Every statement uses IF NOT EXISTS
// for idempotency.
//
// All timestamps are Unix seconds stored as INTEGER. App and title hashes
// are xxHash64 values reinterpreted as signed int64 for SQLite's benefit.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS categories (
			id       INTEGER PRIMARY KEY,
			name     TEXT NOT NULL UNIQUE,
			icon     TEXT NOT NULL DEFAULT '',
			color    TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			apps     TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name          TEXT NOT NULL,
			app_hash          INTEGER NOT NULL,
			window_title      TEXT NOT NULL DEFAULT '',
			window_title_hash INTEGER NOT NULL,
			category_id       INTEGER NOT NULL REFERENCES categories(id),
			start_time        INTEGER NOT NULL,
			end_time          INTEGER NOT NULL,
			duration_seconds  INTEGER NOT NULL,
			metadata          BLOB,
			CHECK (end_time > start_time)
		)`,

		// hour is 0-23 for hourly rows and -1 for daily rows. A NULL hour
		// would defeat the UNIQUE constraint (SQLite treats NULLs as
		// distinct), and the upsert in rollup depends on the conflict.
		`CREATE TABLE IF NOT EXISTS activity_summaries (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			date           INTEGER NOT NULL,
			hour           INTEGER NOT NULL DEFAULT -1,
			category_id    INTEGER NOT NULL REFERENCES categories(id),
			total_duration INTEGER NOT NULL DEFAULT 0,
			event_count    INTEGER NOT NULL DEFAULT 0,
			top_apps       BLOB NOT NULL,
			top_titles     BLOB NOT NULL,
			updated_at     INTEGER NOT NULL DEFAULT 0,
			UNIQUE(date, hour, category_id),
			CHECK (hour BETWEEN -1 AND 23)
		)`,

		`CREATE TABLE IF NOT EXISTS app_registry (
			app_hash       INTEGER PRIMARY KEY,
			app_name       TEXT NOT NULL,
			display_name   TEXT NOT NULL DEFAULT '',
			category_id    INTEGER NOT NULL REFERENCES categories(id),
			first_seen     INTEGER NOT NULL,
			last_seen      INTEGER NOT NULL,
			usage_count    INTEGER NOT NULL DEFAULT 0,
			total_duration INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS query_cache (
			query_hash INTEGER PRIMARY KEY,
			query_text TEXT NOT NULL,
			result     BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_activities_start       ON activities(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_app_hash    ON activities(app_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_category    ON activities(category_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_date         ON activity_summaries(date, hour)`,
		`CREATE INDEX IF NOT EXISTS idx_registry_last_seen     ON app_registry(last_seen)`,
		`CREATE INDEX IF NOT EXISTS idx_query_cache_created    ON query_cache(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedCategories(tx)
}

// seedCategories inserts the built-in category rows. Uses INSERT OR IGNORE
// so re-running is safe and user edits to icons or colors survive.
func seedCategories(tx *sql.Tx) error {
	const insertSQL = `INSERT OR IGNORE INTO categories (id, name, icon, color, keywords, apps) VALUES (?, ?, ?, ?, ?, ?)`

	for _, c := range model.DefaultCategories() {
		keywords, err := json.Marshal(c.Keywords)
		if err != nil {
			return err
		}
		apps, err := json.Marshal(c.Apps)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(insertSQL, c.ID, c.Name, c.Icon, c.Color, string(keywords), string(apps)); err != nil {
			return err
		}
	}

	return nil
}
