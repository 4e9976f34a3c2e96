package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentflow/ltm/internal/config"
)

func TestQueryCommand_RequiresQuestion(t *testing.T) {
	cmd := &QueryCommand{globals: &GlobalFlags{}}
	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a question")
}

func TestQueryCommand_HintedSearch(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	now := time.Now().Unix()
	seedActivity(t, store, "Code", "main.go - myproject", now-1200, now-600)
	seedActivity(t, store, "Firefox", "Hacker News - Mozilla Firefox", now-600, now-300)

	cmd := &QueryCommand{NoCache: true, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, "what was I coding on today"))
	})

	assert.Contains(t, out, "=== ACTIVITY REPORT: today ===")
	assert.Contains(t, out, "Code")
	// The coding hint filters to Development, so the browser span stays out.
	assert.NotContains(t, out, "Firefox")
}

func TestQueryCommand_HintedSearchIncludesRollups(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	ctx := context.Background()

	// One coding span early today, already rolled into an hourly summary,
	// plus one still-raw span. A hinted query must surface both.
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).Unix()
	seedActivity(t, store, "Code", "early.go - myproject", midnight+3600, midnight+3600+1800)
	rolled, err := store.RollupHourly(ctx, midnight+3*3600)
	require.NoError(t, err)
	require.Equal(t, 1, rolled.Buckets)

	seedActivity(t, store, "Code", "late.go - myproject", midnight+10*3600, midnight+10*3600+600)

	cmd := &QueryCommand{NoCache: true, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, "what was I coding on today"))
	})

	assert.Contains(t, out, "[raw]")
	assert.Contains(t, out, "late.go")
	assert.Contains(t, out, "[rollup]")
	assert.Contains(t, out, "hourly Development")
	assert.Contains(t, out, "Total tracked: 40m 0s across 2 events")
}

func TestQueryCommand_NoHintsReadsFullTimeline(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	now := time.Now().Unix()
	seedActivity(t, store, "Code", "main.go", now-1200, now-600)
	seedActivity(t, store, "Firefox", "Hacker News - Mozilla Firefox", now-600, now-300)

	cmd := &QueryCommand{NoCache: true, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, "what happened today"))
	})

	assert.Contains(t, out, "Code")
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "Total tracked: 15m 0s across 2 events")
}

func TestQueryCommand_CacheHit(t *testing.T) {
	store := newTestStore(t)
	cfg := config.DefaultConfig()
	now := time.Now().Unix()
	seedActivity(t, store, "Code", "main.go", now-1200, now-600)

	cmd := &QueryCommand{globals: &GlobalFlags{}}
	first := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, "what happened today"))
	})

	// New data after caching must not change the cached answer.
	seedActivity(t, store, "Firefox", "Hacker News - Mozilla Firefox", now-600, now-300)

	second := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, cfg, "what happened today"))
	})
	assert.Equal(t, first, second)
	assert.NotContains(t, second, "Firefox")

	// Bypassing the cache sees the new record.
	fresh := &QueryCommand{NoCache: true, globals: &GlobalFlags{}}
	third := captureOutput(t, func() {
		require.NoError(t, fresh.executeWithStore(store, cfg, "what happened today"))
	})
	assert.Contains(t, third, "Firefox")
}
