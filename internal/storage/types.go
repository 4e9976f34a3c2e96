package storage

import "github.com/intentflow/ltm/internal/model"

// SearchQuery defines filters for searching activity records in the hot
// tier. Keywords match app name or window title (case-insensitive
// substring, any keyword); a record matching any listed category also
// qualifies. Empty CategoryIDs means no category filter.
type SearchQuery struct {
	Keywords    []string
	CategoryIDs []int
	Start       int64 // Unix seconds, inclusive
	End         int64 // Unix seconds, exclusive
	Limit       int
	Offset      int
}

// RollupResult reports one rollup pass.
type RollupResult struct {
	Buckets        int   // summary buckets written or merged
	SourcesRemoved int64 // source rows deleted after aggregation
	Skipped        int64 // rows skipped because their blobs were corrupt
}

// CleanupResult reports a retention pass over all tiers.
type CleanupResult struct {
	Deleted     int64
	CachePruned int64
	DryRun      bool
}

// StorageStats holds aggregate statistics about the database.
type StorageStats struct {
	ActivityCount     int64
	HourlySummaries   int64
	DailySummaries    int64
	RegistryApps      int64
	CachedQueries     int64
	OldestTime        int64 // Unix seconds, 0 when empty
	NewestTime        int64
	DatabaseSizeBytes int64
	TopApps           []model.AppStat
}
