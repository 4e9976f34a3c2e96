package rollup

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentflow/ltm/internal/storage"
)

// fakeStore records cutoffs and can stall to force tick overlap.
type fakeStore struct {
	mu          sync.Mutex
	hourlyCalls []int64
	dailyCalls  []int64
	cleanups    []int64
	invalidated atomic.Int32
	passes      atomic.Int32
	block       chan struct{}
}

func (f *fakeStore) RollupHourly(ctx context.Context, before int64) (*storage.RollupResult, error) {
	f.passes.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hourlyCalls = append(f.hourlyCalls, before)
	return &storage.RollupResult{Buckets: 1, SourcesRemoved: 3}, nil
}

func (f *fakeStore) RollupDaily(ctx context.Context, before int64) (*storage.RollupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls = append(f.dailyCalls, before)
	return &storage.RollupResult{Buckets: 2}, nil
}

func (f *fakeStore) Cleanup(ctx context.Context, before int64, dryRun bool) (*storage.CleanupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, before)
	return &storage.CleanupResult{Deleted: 5, DryRun: dryRun}, nil
}

func (f *fakeStore) InvalidateCache(ctx context.Context) error {
	f.invalidated.Add(1)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTick_CutoffsFollowWindows(t *testing.T) {
	store := &fakeStore{}
	cfg := Config{
		HotWindow:  7 * 24 * time.Hour,
		WarmWindow: 30 * 24 * time.Hour,
		Retention:  365 * 24 * time.Hour,
		Interval:   time.Hour,
	}
	sched := New(store, cfg, testLogger())

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	res, err := sched.Tick(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Hourly.Buckets)
	assert.Equal(t, 2, res.Daily.Buckets)
	assert.Equal(t, int64(5), res.Cleaned)

	require.Len(t, store.hourlyCalls, 1)
	assert.Equal(t, now.Add(-cfg.HotWindow).Unix(), store.hourlyCalls[0])
	require.Len(t, store.dailyCalls, 1)
	assert.Equal(t, now.Add(-cfg.WarmWindow).Unix(), store.dailyCalls[0])
	require.Len(t, store.cleanups, 1)
	assert.Equal(t, now.Add(-cfg.Retention).Unix(), store.cleanups[0])
	assert.Equal(t, int32(1), store.invalidated.Load(), "a pass that moved rows drops cached reports")
}

func TestTick_ZeroRetentionSkipsCleanup(t *testing.T) {
	store := &fakeStore{}
	sched := New(store, Config{Retention: 0}, testLogger())

	res, err := sched.Tick(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Cleaned)
	assert.Empty(t, store.cleanups)
}

func TestTick_ConcurrentCallsCoalesce(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	sched := New(store, Config{}, testLogger())

	now := time.Now()
	const callers = 5

	var wg sync.WaitGroup
	results := make([]*TickResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := sched.Tick(context.Background(), now)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Let all callers pile up on the in-flight pass, then release it.
	time.Sleep(50 * time.Millisecond)
	close(store.block)
	wg.Wait()

	assert.Equal(t, int32(1), store.passes.Load(), "overlapping ticks must run one pass")
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, 1, res.Hourly.Buckets)
	}
}

func TestNew_Defaults(t *testing.T) {
	sched := New(&fakeStore{}, Config{}, nil)
	def := DefaultConfig()
	assert.Equal(t, def.HotWindow, sched.cfg.HotWindow)
	assert.Equal(t, def.WarmWindow, sched.cfg.WarmWindow)
	assert.Equal(t, def.Interval, sched.cfg.Interval)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	sched := New(store, Config{Interval: 10 * time.Millisecond}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	// Immediate pass plus at least one ticker pass.
	assert.GreaterOrEqual(t, store.passes.Load(), int32(2))
}
