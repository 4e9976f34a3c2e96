// Package report renders a resolved time range as a deterministic plain
// text block: totals, per-app and per-category time, a bounded timeline,
// and any media playback. The same data always renders byte-identical
// output, which makes the block safe to cache and trivial to diff.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intentflow/ltm/internal/model"
)

// maxTimelineLines bounds the timeline section; the aggregates above it
// already summarize the rest.
const maxTimelineLines = 50

// Build renders the report for a labeled range over tier-transparent
// timeline items.
func Build(label string, items []model.TimelineItem) string {
	var b strings.Builder

	apps := make(map[string]int64)
	cats := make(map[int]int64)
	var total, events int64
	var media []string
	mediaSeen := make(map[string]bool)

	for _, item := range items {
		if item.Record != nil {
			rec := item.Record
			total += rec.DurationSeconds
			events++
			apps[rec.AppName] += rec.DurationSeconds
			cats[rec.CategoryID] += rec.DurationSeconds

			if rec.Metadata != nil && rec.Metadata.Media != nil && rec.Metadata.Media.Title != "" {
				m := rec.Metadata.Media
				line := m.Title
				if m.Artist != "" {
					line = m.Artist + " - " + m.Title
				}
				if m.Status != "" {
					line += " (" + m.Status + ")"
				}
				if !mediaSeen[line] {
					mediaSeen[line] = true
					media = append(media, line)
				}
			}
		} else if item.Summary != nil {
			sum := item.Summary
			total += sum.TotalDuration
			events += sum.EventCount
			cats[sum.CategoryID] += sum.TotalDuration
			for _, e := range sum.TopApps {
				apps[e.Key] += e.Duration
			}
		}
	}

	fmt.Fprintf(&b, "=== ACTIVITY REPORT: %s ===\n", label)
	fmt.Fprintf(&b, "Total tracked: %s across %d events\n", formatDuration(total), events)

	b.WriteString("\n=== TIME PER APP ===\n")
	writeRankedSection(&b, apps, total)

	b.WriteString("\n=== TIME PER CATEGORY ===\n")
	catNames := make(map[string]int64, len(cats))
	for id, dur := range cats {
		catNames[model.CategoryName(id)] += dur
	}
	writeRankedSection(&b, catNames, total)

	b.WriteString("\n=== TIMELINE ===\n")
	writeTimeline(&b, items)

	if len(media) > 0 {
		b.WriteString("\n=== MEDIA PLAYBACK ===\n")
		for _, line := range media {
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

// writeRankedSection prints name, duration, and share lines sorted by
// duration descending with name as the tiebreak.
func writeRankedSection(b *strings.Builder, durations map[string]int64, total int64) {
	if len(durations) == 0 {
		b.WriteString("(none)\n")
		return
	}

	type row struct {
		name string
		dur  int64
	}
	rows := make([]row, 0, len(durations))
	for name, dur := range durations {
		rows = append(rows, row{name, dur})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].dur != rows[j].dur {
			return rows[i].dur > rows[j].dur
		}
		return rows[i].name < rows[j].name
	})

	for _, r := range rows {
		pct := 0.0
		if total > 0 {
			pct = float64(r.dur) / float64(total) * 100
		}
		fmt.Fprintf(b, "%-24s %8s  (%.1f%%)\n", r.name, formatDuration(r.dur), pct)
	}
}

func writeTimeline(b *strings.Builder, items []model.TimelineItem) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}

	// Keep the most recent items; the list is ascending, so the tail is
	// the recent end.
	shown := items
	truncated := 0
	if len(shown) > maxTimelineLines {
		truncated = len(shown) - maxTimelineLines
		shown = shown[truncated:]
	}

	if truncated > 0 {
		fmt.Fprintf(b, "(%d older items not shown)\n", truncated)
	}

	for _, item := range shown {
		ts := time.Unix(item.Start, 0).Local().Format("2006-01-02 15:04")
		if item.Record != nil {
			rec := item.Record
			title := rec.WindowTitle
			if title == "" {
				title = "(no title)"
			}
			fmt.Fprintf(b, "%s  [raw]     %s: %s (%s)\n",
				ts, rec.AppName, title, formatDuration(rec.DurationSeconds))
		} else if item.Summary != nil {
			sum := item.Summary
			fmt.Fprintf(b, "%s  [rollup]  %s %s: %s over %d events\n",
				ts, sum.Granularity, model.CategoryName(sum.CategoryID),
				formatDuration(sum.TotalDuration), sum.EventCount)
		}
	}
}

// formatDuration renders seconds as the largest two units that apply:
// "45s", "12m 5s", "2h 15m".
func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
