// Package tracker normalizes and deduplicates raw activity observations.
// A Tracker owns exactly one open accumulator; callers submit observations
// as they arrive and receive a closed ActivityRecord whenever the open
// span cannot absorb the new observation. The accumulator is explicit,
// owned state, so independent trackers (window vs. media) compose without
// sharing anything.
package tracker

import (
	"strings"
	"time"
	"unicode"

	"github.com/intentflow/ltm/internal/model"
)

// DefaultMergeGap is the default tolerance between the open span's end and
// the next observation before a title change forces a new record.
const DefaultMergeGap = 60 * time.Second

// UnknownApp is the sentinel app name for malformed or empty observations.
// Such observations are recorded (category Other), never rejected; the
// write path must not block on bad input.
const UnknownApp = "Unknown"

// Event is a single observation: "app X shows window title Y right now".
type Event struct {
	AppName     string
	WindowTitle string
	Timestamp   time.Time
	Metadata    *model.Metadata
}

// Tracker maintains the single open accumulator for one observation source.
// It is not safe for concurrent use; each source runs its own Tracker on
// its own goroutine.
type Tracker struct {
	mergeGap time.Duration
	open     *model.ActivityRecord
}

// New returns a Tracker with the given merge gap. A non-positive gap falls
// back to DefaultMergeGap.
func New(mergeGap time.Duration) *Tracker {
	if mergeGap <= 0 {
		mergeGap = DefaultMergeGap
	}
	return &Tracker{mergeGap: mergeGap}
}

// Current returns the open accumulator, or nil when nothing is open. The
// returned record is live (its end time moves on each merge), so callers
// that persist it should copy first.
func (t *Tracker) Current() *model.ActivityRecord {
	return t.open
}

// Submit feeds one observation in. It returns a closed record when the
// observation could not be merged into the open accumulator (the previous
// span is emitted and a new one starts), and nil when the observation was
// merged or opened a fresh accumulator.
//
// Merge rule: same app hash AND same category AND (same title hash OR the
// gap since the open span's end is below the merge gap). On merge only the
// end time and duration advance.
func (t *Tracker) Submit(ev Event) *model.ActivityRecord {
	rec := t.normalize(ev)

	if t.open == nil {
		t.open = rec
		return nil
	}

	if t.mergeable(rec) {
		if rec.EndTime > t.open.EndTime {
			t.open.EndTime = rec.EndTime
			t.open.DurationSeconds = t.open.EndTime - t.open.StartTime
		}
		if rec.Metadata != nil {
			t.open.Metadata = rec.Metadata
		}
		return nil
	}

	closed := t.open
	t.open = rec
	return closed
}

// Flush closes and returns the open accumulator regardless of
// mergeability, or nil when nothing is open. Flush is authoritative over
// the merge gap: the owning scheduler calls it periodically (and at
// shutdown) to bound memory and guarantee persistence, so a pending merge
// never postpones it.
func (t *Tracker) Flush() *model.ActivityRecord {
	closed := t.open
	t.open = nil
	return closed
}

func (t *Tracker) mergeable(rec *model.ActivityRecord) bool {
	if rec.AppHash != t.open.AppHash || rec.CategoryID != t.open.CategoryID {
		return false
	}
	if rec.WindowTitleHash == t.open.WindowTitleHash {
		return true
	}
	gap := rec.StartTime - t.open.EndTime
	return gap >= 0 && gap < int64(t.mergeGap/time.Second)
}

// normalize sanitizes the observation and stamps hashes, category, and a
// minimum one-second span.
func (t *Tracker) normalize(ev Event) *model.ActivityRecord {
	app := SanitizeAppName(ev.AppName)
	category := model.CategoryOther
	if app == "" {
		app = UnknownApp
	} else {
		category = model.Categorize(app, ev.WindowTitle)
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	start := ts.Unix()

	rec := model.NewRecord(app, ev.WindowTitle, category, start, start+1)
	rec.Metadata = ev.Metadata
	return rec
}

// SanitizeAppName strips control characters and normalizes known mangled
// producers. Spotify's window class can arrive with embedded control bytes
// ("Spotify8FileV" and friends), so anything containing the word collapses
// to "Spotify".
func SanitizeAppName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 32 || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())

	if strings.Contains(strings.ToLower(cleaned), "spotify") {
		return "Spotify"
	}
	return cleaned
}
