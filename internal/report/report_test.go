package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentflow/ltm/internal/model"
)

func rawItem(app, title string, start, dur int64) model.TimelineItem {
	rec := model.NewRecord(app, title, model.Categorize(app, title), start, start+dur)
	return model.TimelineItem{
		Provenance: model.ProvenanceRaw,
		Start:      rec.StartTime,
		End:        rec.EndTime,
		Record:     rec,
	}
}

func rollupItem(categoryID int, date int64, hour int, total, count int64, topApps []model.RankedEntry) model.TimelineItem {
	sum := &model.Summary{
		Granularity:   model.GranularityHourly,
		Date:          date,
		Hour:          hour,
		CategoryID:    categoryID,
		TotalDuration: total,
		EventCount:    count,
		TopApps:       topApps,
	}
	start := date + int64(hour)*3600
	return model.TimelineItem{
		Provenance: model.ProvenanceRolledUp,
		Start:      start,
		End:        start + 3600,
		Summary:    sum,
	}
}

func TestBuild_Sections(t *testing.T) {
	base := time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local).Unix()
	items := []model.TimelineItem{
		rawItem("Code", "main.go", base, 600),
		rawItem("firefox", "News", base+600, 300),
	}

	out := Build("today", items)

	assert.Contains(t, out, "=== ACTIVITY REPORT: today ===")
	assert.Contains(t, out, "Total tracked: 15m 0s across 2 events")
	assert.Contains(t, out, "=== TIME PER APP ===")
	assert.Contains(t, out, "=== TIME PER CATEGORY ===")
	assert.Contains(t, out, "=== TIMELINE ===")
	assert.Contains(t, out, "Development")
	assert.Contains(t, out, "[raw]")

	// Apps ordered by duration descending.
	codeIdx := strings.Index(out, "Code")
	ffIdx := strings.Index(out, "firefox")
	assert.Less(t, codeIdx, ffIdx)
}

func TestBuild_Deterministic(t *testing.T) {
	base := time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local).Unix()
	items := []model.TimelineItem{
		rawItem("Code", "a.go", base, 300),
		rawItem("firefox", "News", base+300, 300), // equal durations
		rawItem("Spotify", "Song", base+600, 300),
	}

	first := Build("today", items)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build("today", items))
	}
}

func TestBuild_MixedTiers(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local).Unix()
	items := []model.TimelineItem{
		rollupItem(model.CategoryDevelopment, day, 9, 1800, 4,
			[]model.RankedEntry{{Key: "Code", Duration: 1800, Count: 4}}),
		rawItem("Code", "main.go", day+12*3600, 600),
	}

	out := Build("last week", items)

	assert.Contains(t, out, "Total tracked: 40m 0s across 5 events")
	assert.Contains(t, out, "[rollup]")
	assert.Contains(t, out, "hourly Development: 30m 0s over 4 events")
	// App time folds raw and rolled-up together.
	assert.Contains(t, out, "Code")
	assert.Contains(t, out, "(100.0%)")
}

func TestBuild_TimelineTruncation(t *testing.T) {
	base := time.Date(2024, 5, 15, 0, 0, 0, 0, time.Local).Unix()
	var items []model.TimelineItem
	for i := 0; i < maxTimelineLines+7; i++ {
		items = append(items, rawItem("Code", fmt.Sprintf("file%02d.go", i), base+int64(i)*60, 30))
	}

	out := Build("today", items)
	assert.Contains(t, out, "(7 older items not shown)")
	// The cut drops the oldest items, never the newest.
	assert.NotContains(t, out, "file00.go")
	assert.Contains(t, out, fmt.Sprintf("file%02d.go", maxTimelineLines+6))
	assert.Contains(t, out, "file07.go")
	assert.NotContains(t, out, "file06.go")
}

func TestBuild_MediaSection(t *testing.T) {
	base := time.Date(2024, 5, 15, 9, 0, 0, 0, time.Local).Unix()
	withMedia := rawItem("Spotify", "Artist - Song", base, 300)
	withMedia.Record.Metadata = &model.Metadata{
		Media: &model.MediaInfo{Title: "Song", Artist: "Artist", Status: "Playing"},
	}
	duplicate := rawItem("Spotify", "Artist - Song", base+300, 300)
	duplicate.Record.Metadata = &model.Metadata{
		Media: &model.MediaInfo{Title: "Song", Artist: "Artist", Status: "Playing"},
	}

	out := Build("today", []model.TimelineItem{withMedia, duplicate})

	require.Contains(t, out, "=== MEDIA PLAYBACK ===")
	assert.Equal(t, 1, strings.Count(out, "Artist - Song (Playing)"),
		"repeated playback reports once")
}

func TestBuild_Empty(t *testing.T) {
	out := Build("today", nil)
	assert.Contains(t, out, "Total tracked: 0s across 0 events")
	assert.Contains(t, out, "(none)")
	assert.NotContains(t, out, "MEDIA PLAYBACK")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45))
	assert.Equal(t, "12m 5s", formatDuration(725))
	assert.Equal(t, "2h 15m", formatDuration(8100))
	assert.Equal(t, "0s", formatDuration(0))
}
