// Package timeparse resolves casual time phrases ("yesterday", "last 3
// hours", "monday") into half-open [start, end) ranges. It tolerates the
// typos people actually make when typing fast; an unrecognized phrase
// falls back to today rather than failing, because a slightly wrong range
// beats no answer for a local activity query.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// Range is a resolved half-open time range. Label names what the phrase
// was understood as, for echoing back in output.
type Range struct {
	Start int64 // Unix seconds, inclusive
	End   int64 // Unix seconds, exclusive
	Label string
}

var (
	lastNHoursRe = regexp.MustCompile(`last\s+(\d+)\s+hours?`)
	nDaysAgoRe   = regexp.MustCompile(`(\d+)\s+days?\s+ago`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Resolve maps a phrase to a time range relative to now. Resolution order
// is most-specific first so "yesterday morning" reads as yesterday's
// morning, not all of yesterday.
func Resolve(phrase string, now time.Time) Range {
	p := strings.ToLower(strings.TrimSpace(phrase))

	yesterday := hasFuzzy(p, "yesterday")

	// Part-of-day windows, optionally shifted back a day.
	dayBase := dayStart(now)
	if yesterday {
		dayBase = dayBase.AddDate(0, 0, -1)
	}
	switch {
	case hasFuzzy(p, "morning"):
		return span(dayBase.Add(6*time.Hour), dayBase.Add(12*time.Hour), prefixDay(yesterday, "morning"))
	case hasFuzzy(p, "afternoon"):
		return span(dayBase.Add(12*time.Hour), dayBase.Add(17*time.Hour), prefixDay(yesterday, "afternoon"))
	case hasFuzzy(p, "evening"), hasFuzzy(p, "tonight"):
		return span(dayBase.Add(17*time.Hour), dayBase.Add(24*time.Hour), prefixDay(yesterday, "evening"))
	}

	if m := lastNHoursRe.FindStringSubmatch(p); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return span(now.Add(-time.Duration(n)*time.Hour), now, "last "+m[1]+" hours")
		}
	}
	if strings.Contains(p, "last hour") {
		return span(now.Add(-time.Hour), now, "last hour")
	}

	if m := nDaysAgoRe.FindStringSubmatch(p); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 0 {
			day := dayStart(now).AddDate(0, 0, -n)
			return span(day, day.AddDate(0, 0, 1), m[1]+" days ago")
		}
	}

	if hasFuzzy(p, "week") {
		weekStart := dayStart(now).AddDate(0, 0, -daysSinceMonday(now))
		if strings.Contains(p, "last") {
			weekStart = weekStart.AddDate(0, 0, -7)
			return span(weekStart, weekStart.AddDate(0, 0, 7), "last week")
		}
		return span(weekStart, weekStart.AddDate(0, 0, 7), "this week")
	}

	if yesterday {
		day := dayStart(now).AddDate(0, 0, -1)
		return span(day, day.AddDate(0, 0, 1), "yesterday")
	}

	if name, wd, ok := matchWeekday(p); ok {
		day := mostRecentPast(now, wd)
		return span(day, day.AddDate(0, 0, 1), name)
	}

	// "today", anything unrecognized, and the empty phrase.
	day := dayStart(now)
	return span(day, day.AddDate(0, 0, 1), "today")
}

func span(start, end time.Time, label string) Range {
	return Range{Start: start.Unix(), End: end.Unix(), Label: label}
}

func prefixDay(yesterday bool, part string) string {
	if yesterday {
		return "yesterday " + part
	}
	return "this " + part
}

func dayStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// daysSinceMonday counts back to the most recent Monday, 0 when t is one.
func daysSinceMonday(t time.Time) int {
	d := int(t.Local().Weekday()) - int(time.Monday)
	if d < 0 {
		d += 7
	}
	return d
}

// mostRecentPast returns the midnight of the latest strictly-past day that
// fell on wd. Asking for "monday" on a Monday means last Monday.
func mostRecentPast(now time.Time, wd time.Weekday) time.Time {
	day := dayStart(now)
	back := int(day.Weekday()) - int(wd)
	if back <= 0 {
		back += 7
	}
	return day.AddDate(0, 0, -back)
}

// hasFuzzy reports whether any word of the phrase is the target word give
// or take a couple of typos. The tolerance scales with word length so
// short words don't match everything.
func hasFuzzy(phrase, target string) bool {
	for _, word := range strings.FieldsFunc(phrase, isSeparator) {
		if withinTypos(word, target) {
			return true
		}
	}
	return false
}

func withinTypos(word, target string) bool {
	if word == target {
		return true
	}
	max := 1
	if len(target) >= 7 {
		max = 2
	}
	return levenshtein.ComputeDistance(word, target) <= max
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == ',' || r == '?' || r == '.' || r == '!'
}

// matchWeekday finds the closest weekday name among the phrase's words.
func matchWeekday(phrase string) (string, time.Weekday, bool) {
	bestDist := 3
	var bestName string
	var bestDay time.Weekday

	for _, word := range strings.FieldsFunc(phrase, isSeparator) {
		for name, wd := range weekdays {
			d := levenshtein.ComputeDistance(word, name)
			limit := 1
			if len(name) >= 7 {
				limit = 2
			}
			if d <= limit && d < bestDist {
				bestDist = d
				bestName = name
				bestDay = wd
			}
		}
	}
	return bestName, bestDay, bestName != ""
}
