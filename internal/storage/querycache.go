package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/intentflow/ltm/internal/codec"
	"github.com/intentflow/ltm/internal/model"
)

// cacheGraceSeconds is how long cache rows survive before Cleanup drops
// them. Freshness is enforced per read via maxAge; this only bounds the
// table.
const cacheGraceSeconds = 24 * 3600

// CacheGet returns the cached result for a query string, or ErrNotFound
// when there is no entry or the entry is older than maxAge. A corrupt
// cached blob also reports ErrNotFound: the cache is best-effort and the
// caller recomputes.
func (s *SQLiteStore) CacheGet(ctx context.Context, query string, maxAge time.Duration) ([]byte, error) {
	var blob []byte
	var createdAt int64
	err := s.getCache.QueryRowContext(ctx, hashToDB(model.HashString(query))).Scan(&blob, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: cache miss", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cache get: %v", ErrStoreUnavailable, err)
	}

	if time.Since(time.Unix(createdAt, 0)) > maxAge {
		return nil, fmt.Errorf("%w: cache entry expired", ErrNotFound)
	}

	result, err := s.codec.Decompress(blob)
	if err != nil {
		if errors.Is(err, codec.ErrCorrupt) {
			s.logger.Warn("dropping corrupt cache entry", "query", query)
			return nil, fmt.Errorf("%w: corrupt cache entry", ErrNotFound)
		}
		return nil, err
	}
	return result, nil
}

// CachePut stores a query result, replacing any previous entry for the
// same query string.
func (s *SQLiteStore) CachePut(ctx context.Context, query string, result []byte) error {
	_, err := s.putCache.ExecContext(ctx,
		hashToDB(model.HashString(query)), query, s.codec.Compress(result), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: cache put: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// InvalidateCache drops every cached query result. Rollup passes call
// this because they rewrite history that cached reports were built from;
// ordinary writes rely on the TTL instead.
func (s *SQLiteStore) InvalidateCache(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM query_cache"); err != nil {
		return fmt.Errorf("%w: invalidate cache: %v", ErrStoreUnavailable, err)
	}
	return nil
}
