// Package storage implements the tiered activity store on SQLite: raw
// records in the hot tier, hourly summaries in the warm tier, daily
// summaries in the cold tier, plus the app registry and the query cache.
// Rollup moves data down the tiers without losing total tracked time.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/intentflow/ltm/internal/codec"
	"github.com/intentflow/ltm/internal/model"
)

// Store defines the interface for activity data operations.
type Store interface {
	WriteActivity(ctx context.Context, rec *model.ActivityRecord) error
	GetActivities(ctx context.Context, start, end int64, limit, offset int) ([]model.ActivityRecord, error)
	SearchActivities(ctx context.Context, q SearchQuery) ([]model.ActivityRecord, error)
	GetActivityStats(ctx context.Context, start, end int64) (*model.ActivityStats, error)
	ReadRange(ctx context.Context, start, end int64) ([]model.TimelineItem, error)

	RollupHourly(ctx context.Context, before int64) (*RollupResult, error)
	RollupDaily(ctx context.Context, before int64) (*RollupResult, error)
	Cleanup(ctx context.Context, before int64, dryRun bool) (*CleanupResult, error)
	PurgeAll(ctx context.Context) error

	GetRegistry(ctx context.Context) ([]model.RegistryEntry, error)
	CacheGet(ctx context.Context, query string, maxAge time.Duration) ([]byte, error)
	CachePut(ctx context.Context, query string, result []byte) error
	InvalidateCache(ctx context.Context) error

	GetStats(ctx context.Context) (*StorageStats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	codec  *codec.Codec
	logger *slog.Logger

	// Prepared statements for the per-observation write path.
	insertActivity *sql.Stmt
	upsertRegistry *sql.Stmt
	getCache       *sql.Stmt
	putCache       *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated
// database. The codec is applied to metadata, summary top lists, and
// cached query results.
func NewSQLiteStore(db *sql.DB, c *codec.Codec, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SQLiteStore{db: db, codec: c, logger: logger}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertActivity, err = s.db.Prepare(`
		INSERT INTO activities (app_name, app_hash, window_title, window_title_hash,
		                        category_id, start_time, end_time, duration_seconds, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.upsertRegistry, err = s.db.Prepare(`
		INSERT INTO app_registry (app_hash, app_name, category_id, first_seen, last_seen, usage_count, total_duration)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(app_hash) DO UPDATE SET
			last_seen      = excluded.last_seen,
			category_id    = excluded.category_id,
			usage_count    = usage_count + 1,
			total_duration = total_duration + excluded.total_duration
	`)
	if err != nil {
		return err
	}

	s.getCache, err = s.db.Prepare(`
		SELECT result, created_at FROM query_cache WHERE query_hash = ?
	`)
	if err != nil {
		return err
	}

	s.putCache, err = s.db.Prepare(`
		INSERT INTO query_cache (query_hash, query_text, result, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			query_text = excluded.query_text,
			result     = excluded.result,
			created_at = excluded.created_at
	`)
	return err
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed, that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertActivity, s.upsertRegistry, s.getCache, s.putCache,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// hashToDB reinterprets an xxHash64 value as int64 for storage. SQLite has
// no unsigned 64-bit integer type; the bit pattern is preserved both ways.
func hashToDB(h uint64) int64 {
	return int64(h)
}

func hashFromDB(v int64) uint64 {
	return uint64(v)
}

// dayStart returns the Unix seconds of the local midnight containing ts.
func dayStart(ts int64) int64 {
	t := time.Unix(ts, 0).Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local).Unix()
}

// hourOf returns the local hour (0-23) containing ts.
func hourOf(ts int64) int {
	return time.Unix(ts, 0).Local().Hour()
}

// validateRange enforces half-open [start, end) semantics.
func validateRange(start, end int64) error {
	if end <= start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidTimeRange, start, end)
	}
	return nil
}

// encodeMetadata serializes and compresses record metadata. Nil metadata
// stores as NULL.
func (s *SQLiteStore) encodeMetadata(m *model.Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return s.codec.Compress(raw), nil
}

// decodeMetadata reverses encodeMetadata. Corrupt blobs return
// codec.ErrCorrupt so callers can skip the row.
func (s *SQLiteStore) decodeMetadata(blob []byte) (*model.Metadata, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := s.codec.Decompress(blob)
	if err != nil {
		return nil, err
	}
	var m model.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", codec.ErrCorrupt, err)
	}
	return &m, nil
}

// encodeRanked serializes and compresses a summary top list.
func (s *SQLiteStore) encodeRanked(entries []model.RankedEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.RankedEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal ranked list: %w", err)
	}
	return s.codec.Compress(raw), nil
}

func (s *SQLiteStore) decodeRanked(blob []byte) ([]model.RankedEntry, error) {
	raw, err := s.codec.Decompress(blob)
	if err != nil {
		return nil, err
	}
	var entries []model.RankedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: ranked list: %v", codec.ErrCorrupt, err)
	}
	return entries, nil
}
