// Package model defines the domain types shared by the LTM storage core:
// activity records, aggregate summaries, categories, and the hashing
// conventions used to reference apps and window titles compactly.
package model

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// MediaInfo describes media playback captured alongside an activity.
type MediaInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Status string `json:"status"` // "Playing", "Paused", "Stopped"
}

// Metadata is the opaque per-record payload. It is serialized to JSON and
// compressed before it touches storage; the store never inspects it.
type Metadata struct {
	IsIdle       bool       `json:"is_idle,omitempty"`
	IsFullscreen bool       `json:"is_fullscreen,omitempty"`
	URL          string     `json:"url,omitempty"`
	Media        *MediaInfo `json:"media,omitempty"`
}

// ActivityRecord is one observed span of foreground activity.
type ActivityRecord struct {
	ID              int64
	AppName         string
	AppHash         uint64
	WindowTitle     string
	WindowTitleHash uint64
	CategoryID      int
	StartTime       int64 // Unix seconds
	EndTime         int64 // Unix seconds, invariant: EndTime > StartTime
	DurationSeconds int64 // invariant: EndTime - StartTime
	Metadata        *Metadata
}

// Duration returns the record's span as a time.Duration.
func (r *ActivityRecord) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// HashString computes the xxHash64 of the lower-cased UTF-8 bytes of s.
// Collisions are accepted as a theoretical risk, not an error condition.
func HashString(s string) uint64 {
	return xxhash.Sum64String(strings.ToLower(s))
}

// NewRecord builds an ActivityRecord from raw observation fields, filling
// in hashes and the duration. Times are Unix seconds.
func NewRecord(appName, windowTitle string, categoryID int, start, end int64) *ActivityRecord {
	return &ActivityRecord{
		AppName:         appName,
		AppHash:         HashString(appName),
		WindowTitle:     windowTitle,
		WindowTitleHash: HashString(windowTitle),
		CategoryID:      categoryID,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end - start,
	}
}

// AppStat is one row of a per-app aggregation.
type AppStat struct {
	AppName    string  `json:"app_name"`
	Duration   int64   `json:"duration"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CategoryStat is one row of a per-category aggregation.
type CategoryStat struct {
	CategoryID   int     `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Duration     int64   `json:"duration"`
	Count        int64   `json:"count"`
	Percentage   float64 `json:"percentage"`
}

// ActivityStats aggregates a time range: total tracked time plus the top
// apps and categories by duration.
type ActivityStats struct {
	TotalDuration int64          `json:"total_duration"`
	TotalEvents   int64          `json:"total_events"`
	TopApps       []AppStat      `json:"top_apps"`
	TopCategories []CategoryStat `json:"top_categories"`
}

// RegistryEntry is one row of the app registry: an app name seen at least
// once, with lifetime usage counters. Entries are never deleted.
type RegistryEntry struct {
	AppHash       uint64
	AppName       string
	DisplayName   string
	CategoryID    int
	FirstSeen     int64
	LastSeen      int64
	UsageCount    int64
	TotalDuration int64
}
