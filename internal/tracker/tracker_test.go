package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentflow/ltm/internal/model"
)

func at(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestSubmit_MergesSameTitle(t *testing.T) {
	tr := New(DefaultMergeGap)

	closed := tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})
	assert.Nil(t, closed)

	closed = tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1030)})
	assert.Nil(t, closed)

	open := tr.Current()
	require.NotNil(t, open)
	assert.Equal(t, int64(1000), open.StartTime)
	assert.Equal(t, int64(1031), open.EndTime)
	assert.Equal(t, int64(31), open.DurationSeconds)
}

func TestSubmit_MergesTitleChangeWithinGap(t *testing.T) {
	tr := New(60 * time.Second)

	tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})

	// Different title, same app and category, 30s after the open span
	// ended: absorbed into the same record.
	closed := tr.Submit(Event{AppName: "Code", WindowTitle: "store.go", Timestamp: at(1031)})
	assert.Nil(t, closed)

	open := tr.Current()
	require.NotNil(t, open)
	assert.Equal(t, int64(1000), open.StartTime)
	assert.Equal(t, int64(1032), open.EndTime)
	// The merged record keeps the first title.
	assert.Equal(t, "main.go", open.WindowTitle)
}

func TestSubmit_TitleChangeBeyondGapCloses(t *testing.T) {
	tr := New(60 * time.Second)

	tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})

	closed := tr.Submit(Event{AppName: "Code", WindowTitle: "store.go", Timestamp: at(1000 + 1 + 61)})
	require.NotNil(t, closed)
	assert.Equal(t, "main.go", closed.WindowTitle)
	assert.Equal(t, int64(1000), closed.StartTime)

	open := tr.Current()
	require.NotNil(t, open)
	assert.Equal(t, "store.go", open.WindowTitle)
}

func TestSubmit_AppChangeCloses(t *testing.T) {
	tr := New(DefaultMergeGap)

	tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})

	closed := tr.Submit(Event{AppName: "firefox", WindowTitle: "Hacker News - Mozilla Firefox", Timestamp: at(1001)})
	require.NotNil(t, closed)
	assert.Equal(t, "Code", closed.AppName)
	assert.Equal(t, model.CategoryDevelopment, closed.CategoryID)

	open := tr.Current()
	require.NotNil(t, open)
	assert.Equal(t, "firefox", open.AppName)
	assert.Equal(t, model.CategoryBrowser, open.CategoryID)
}

func TestSubmit_CategoryChangeClosesEvenForSameApp(t *testing.T) {
	tr := New(DefaultMergeGap)

	// Browsing in firefox, then a YouTube video in the same firefox:
	// the title flips the category to Entertainment, so the spans split.
	tr.Submit(Event{AppName: "firefox", WindowTitle: "Go docs - Mozilla Firefox", Timestamp: at(1000)})

	closed := tr.Submit(Event{AppName: "firefox", WindowTitle: "Cat videos - YouTube", Timestamp: at(1002)})
	require.NotNil(t, closed)
	assert.Equal(t, model.CategoryBrowser, closed.CategoryID)
	assert.Equal(t, model.CategoryEntertainment, tr.Current().CategoryID)
}

func TestSubmit_MergeIsIdempotentOnDuplicates(t *testing.T) {
	tr := New(DefaultMergeGap)

	ev := Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)}
	tr.Submit(ev)
	want := *tr.Current()

	// The same observation resubmitted changes nothing.
	assert.Nil(t, tr.Submit(ev))
	assert.Equal(t, want, *tr.Current())
}

func TestFlush(t *testing.T) {
	tr := New(DefaultMergeGap)

	assert.Nil(t, tr.Flush(), "flush with nothing open returns nil")

	tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})
	closed := tr.Flush()
	require.NotNil(t, closed)
	assert.Equal(t, "Code", closed.AppName)
	assert.Nil(t, tr.Current())

	// After a flush the next observation opens a fresh span even though
	// it would have merged.
	assert.Nil(t, tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1005)}))
	assert.Equal(t, int64(1005), tr.Current().StartTime)
}

func TestSubmit_EmptyAppBecomesUnknown(t *testing.T) {
	tr := New(DefaultMergeGap)

	tr.Submit(Event{AppName: "   ", WindowTitle: "whatever", Timestamp: at(1000)})

	open := tr.Current()
	require.NotNil(t, open)
	assert.Equal(t, UnknownApp, open.AppName)
	assert.Equal(t, model.CategoryOther, open.CategoryID)
}

func TestSubmit_MinimumOneSecondSpan(t *testing.T) {
	tr := New(DefaultMergeGap)

	tr.Submit(Event{AppName: "Code", WindowTitle: "main.go", Timestamp: at(1000)})
	closed := tr.Flush()
	require.NotNil(t, closed)
	assert.Equal(t, int64(1), closed.DurationSeconds)
}

func TestSanitizeAppName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Code", "Code"},
		{"  firefox \n", "firefox"},
		{"Spotify\x018FileV", "Spotify"},
		{"spotify premium", "Spotify"},
		{"term\x00inal", "terminal"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeAppName(tc.in), "input %q", tc.in)
	}
}
