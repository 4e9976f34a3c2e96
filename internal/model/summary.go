package model

import "sort"

// Granularity discriminates summary buckets.
type Granularity int

const (
	// GranularityHourly covers one (date, hour, category) bucket.
	GranularityHourly Granularity = iota
	// GranularityDaily covers one (date, category) bucket.
	GranularityDaily
)

func (g Granularity) String() string {
	if g == GranularityDaily {
		return "daily"
	}
	return "hourly"
}

// Provenance tells a reader whether a timeline item is a raw event or the
// product of a rollup, so presentation can differ without nil checks.
type Provenance int

const (
	ProvenanceRaw Provenance = iota
	ProvenanceRolledUp
)

func (p Provenance) String() string {
	if p == ProvenanceRolledUp {
		return "rollup"
	}
	return "raw"
}

// TopN bounds the top_apps/top_titles lists carried by a summary.
const TopN = 10

// RankedEntry is one row of a summary's top-apps or top-titles list.
// Key is an app name or a window title.
type RankedEntry struct {
	Key      string `json:"key"`
	Duration int64  `json:"duration"`
	Count    int64  `json:"count"`
}

// Summary aggregates many activity records for one bucket. Hour is only
// meaningful for GranularityHourly.
type Summary struct {
	ID            int64
	Granularity   Granularity
	Date          int64 // Unix seconds of the local midnight starting the day
	Hour          int   // 0-23 for hourly summaries
	CategoryID    int
	TotalDuration int64
	EventCount    int64
	TopApps       []RankedEntry
	TopTitles     []RankedEntry
}

// Span returns the [start, end) window the summary bucket covers.
func (s *Summary) Span() (int64, int64) {
	if s.Granularity == GranularityDaily {
		return s.Date, s.Date + 24*3600
	}
	start := s.Date + int64(s.Hour)*3600
	return start, start + 3600
}

// SortRanked orders entries by duration descending, ties broken by key
// hash ascending so output is deterministic and matches how entries are
// indexed in storage.
func SortRanked(entries []RankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Duration != entries[j].Duration {
			return entries[i].Duration > entries[j].Duration
		}
		return HashString(entries[i].Key) < HashString(entries[j].Key)
	})
}

// MergeRanked combines ranked lists, re-summing duplicate keys, re-sorting,
// and truncating to n. Used by Warm→Cold rollup to fold per-hour lists into
// a daily list.
func MergeRanked(n int, lists ...[]RankedEntry) []RankedEntry {
	byKey := make(map[string]*RankedEntry)
	for _, list := range lists {
		for _, e := range list {
			if have, ok := byKey[e.Key]; ok {
				have.Duration += e.Duration
				have.Count += e.Count
			} else {
				copied := e
				byKey[e.Key] = &copied
			}
		}
	}

	merged := make([]RankedEntry, 0, len(byKey))
	for _, e := range byKey {
		merged = append(merged, *e)
	}
	SortRanked(merged)

	if len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// TimelineItem is one element of a tier-transparent read: either a raw
// record or a rolled-up summary, tagged by Provenance and ordered by Start.
type TimelineItem struct {
	Provenance Provenance
	Start      int64
	End        int64
	Record     *ActivityRecord // set when Provenance == ProvenanceRaw
	Summary    *Summary        // set when Provenance == ProvenanceRolledUp
}
