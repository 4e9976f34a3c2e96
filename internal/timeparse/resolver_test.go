package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday afternoon, fixed so weekday math is predictable.
var testNow = time.Date(2024, 5, 15, 14, 30, 0, 0, time.Local)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.Local)
}

func TestResolve(t *testing.T) {
	cases := []struct {
		phrase    string
		wantStart time.Time
		wantEnd   time.Time
		wantLabel string
	}{
		{"today", day(15), day(16), "today"},
		{"what did I do today", day(15), day(16), "today"},

		{"yesterday", day(14), day(15), "yesterday"},
		{"yesteray", day(14), day(15), "yesterday"},
		{"yestarday", day(14), day(15), "yesterday"},
		{"what was I doing yesterday?", day(14), day(15), "yesterday"},

		{"this morning", day(15).Add(6 * time.Hour), day(15).Add(12 * time.Hour), "this morning"},
		{"this afternoon", day(15).Add(12 * time.Hour), day(15).Add(17 * time.Hour), "this afternoon"},
		{"this evening", day(15).Add(17 * time.Hour), day(16), "this evening"},
		{"yesterday morning", day(14).Add(6 * time.Hour), day(14).Add(12 * time.Hour), "yesterday morning"},

		{"last hour", testNow.Add(-time.Hour), testNow, "last hour"},
		{"last 3 hours", testNow.Add(-3 * time.Hour), testNow, "last 3 hours"},
		{"the last 12 hours", testNow.Add(-12 * time.Hour), testNow, "last 12 hours"},

		{"2 days ago", day(13), day(14), "2 days ago"},
		{"5 days ago", day(10), day(11), "5 days ago"},

		// May 13 2024 is a Monday.
		{"this week", day(13), day(20), "this week"},
		{"last week", day(6), day(13), "last week"},

		// Most recent strictly-past occurrence.
		{"monday", day(13), day(14), "monday"},
		{"tuesday", day(14), day(15), "tuesday"},
		{"wednesday", day(8), day(9), "wednesday"}, // today is Wednesday
		{"friday", day(10), day(11), "friday"},
		{"wendsday", day(8), day(9), "wednesday"},

		// Unrecognized input falls back to today.
		{"gibberish xyzzy", day(15), day(16), "today"},
		{"", day(15), day(16), "today"},
	}

	for _, tc := range cases {
		t.Run(tc.phrase, func(t *testing.T) {
			got := Resolve(tc.phrase, testNow)
			assert.Equal(t, tc.wantStart.Unix(), got.Start, "start")
			assert.Equal(t, tc.wantEnd.Unix(), got.End, "end")
			assert.Equal(t, tc.wantLabel, got.Label, "label")
		})
	}
}

func TestResolve_HalfOpen(t *testing.T) {
	got := Resolve("yesterday", testNow)
	assert.Equal(t, int64(24*3600), got.End-got.Start)

	// Adjacent days share a boundary with no overlap.
	today := Resolve("today", testNow)
	assert.Equal(t, got.End, today.Start)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	a := Resolve("YESTERDAY", testNow)
	b := Resolve("yesterday", testNow)
	assert.Equal(t, a, b)
}
