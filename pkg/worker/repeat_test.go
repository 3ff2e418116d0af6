package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/inputrec/internal/testutils"
	"github.com/jzx17/inputrec/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDelayer records AddDelayTask calls and runs them on demand
type fakeDelayer struct {
	mu     sync.Mutex
	delays []time.Duration
	tasks  []types.TaskFunc
	err    error
}

func (f *fakeDelayer) AddDelayTask(delay time.Duration, task types.TaskFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delays = append(f.delays, delay)
	f.tasks = append(f.tasks, task)
	return nil
}

// runNext pops and runs the oldest pending task
func (f *fakeDelayer) runNext(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	require.NotEmpty(t, f.tasks)
	task := f.tasks[0]
	f.tasks = f.tasks[1:]
	f.mu.Unlock()
	task()
}

func (f *fakeDelayer) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func TestRepeat_InvalidArguments(t *testing.T) {
	var alive atomic.Bool
	assert.ErrorIs(t, Repeat(&fakeDelayer{}, time.Millisecond, &alive, nil), types.ErrNilTask)
	assert.Error(t, Repeat(&fakeDelayer{}, time.Millisecond, nil, func() {}))
}

func TestRepeat_ResubmitsWithInterval(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	f := &fakeDelayer{}

	var runs int
	require.NoError(t, Repeat(f, 5*time.Millisecond, &alive, func() { runs++ }))
	require.Equal(t, 1, f.pending())

	for i := 0; i < 3; i++ {
		f.runNext(t)
		assert.Equal(t, 1, f.pending(), "each run schedules exactly one successor")
	}
	assert.Equal(t, 3, runs)
	assert.Equal(t, []time.Duration{0, 5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond}, f.delays)
}

func TestRepeat_StopsWhenFlagCleared(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	f := &fakeDelayer{}

	var runs int
	require.NoError(t, Repeat(f, time.Millisecond, &alive, func() { runs++ }))
	f.runNext(t)
	require.Equal(t, 1, runs)

	alive.Store(false)
	f.runNext(t)
	assert.Equal(t, 1, runs, "a run started after the flag clears is a no-op")
	assert.Equal(t, 0, f.pending(), "nothing left scheduled")
}

func TestRepeat_FlagClearedDuringRun(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	f := &fakeDelayer{}

	var runs int
	require.NoError(t, Repeat(f, time.Millisecond, &alive, func() {
		runs++
		alive.Store(false)
	}))
	f.runNext(t)

	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, f.pending())
}

func TestRepeat_RejectedResubmitClearsFlag(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	f := &fakeDelayer{}

	var runs int
	require.NoError(t, Repeat(f, time.Millisecond, &alive, func() { runs++ }))

	f.mu.Lock()
	f.err = types.ErrPoolClosed
	f.mu.Unlock()

	f.runNext(t)
	assert.Equal(t, 1, runs)
	assert.False(t, alive.Load(), "a cadence the pool ended is reported as not alive")
	assert.Equal(t, 0, f.pending())
}

func TestRepeat_SurvivesPanickingRun(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	f := &fakeDelayer{}

	require.NoError(t, Repeat(f, time.Millisecond, &alive, func() { panic("poll failed") }))
	assert.Panics(t, func() { f.runNext(t) })
	assert.Equal(t, 1, f.pending(), "successor is scheduled before the panic propagates")
}

func TestRepeat_OnThreadPool(t *testing.T) {
	pool := startPool(t, 2)

	const interval = time.Millisecond
	var alive atomic.Bool
	alive.Store(true)
	var inFlight, overlapped int64
	runs := &testutils.Counter{}

	require.NoError(t, Repeat(pool, interval, &alive, func() {
		if atomic.AddInt64(&inFlight, 1) > 1 {
			atomic.StoreInt64(&overlapped, 1)
		}
		runs.Mark(time.Now())
		atomic.AddInt64(&inFlight, -1)
	}))

	testutils.AssertEventually(t, func() bool { return runs.Count() >= 5 })

	alive.Store(false)
	stoppedAt := runs.Count()
	time.Sleep(20 * time.Millisecond)

	assert.LessOrEqual(t, runs.Count(), stoppedAt+1)
	assert.Equal(t, int64(0), atomic.LoadInt64(&overlapped), "runs never overlap")

	calls := runs.Calls()
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), interval, "successive runs are at least one interval apart")
	}
	testutils.AssertEventually(t, func() bool {
		stats := pool.Stats()
		return stats.DelayedTasks == 0 && stats.QueueSize == 0
	})
}

func TestRepeat_EndsWhenPoolCloses(t *testing.T) {
	pool := startPool(t, 1)

	var alive atomic.Bool
	alive.Store(true)
	var runs int64
	require.NoError(t, Repeat(pool, time.Millisecond, &alive, func() { atomic.AddInt64(&runs, 1) }))
	testutils.AssertEventually(t, func() bool { return atomic.LoadInt64(&runs) >= 2 })

	require.NoError(t, pool.Close())
	after := atomic.LoadInt64(&runs)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt64(&runs))
}

func TestRepeat_ShutdownMidRunClearsFlag(t *testing.T) {
	pool := startPool(t, 1)

	var alive atomic.Bool
	alive.Store(true)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	require.NoError(t, Repeat(pool, time.Millisecond, &alive, func() {
		once.Do(func() { close(entered) })
		<-release
	}))
	require.True(t, testutils.WaitClosed(entered, testutils.DefaultWait))

	// the run in flight finishes after the pool stopped accepting work
	pool.Shutdown()
	close(release)

	require.True(t, testutils.WaitClosed(pool.Done(), testutils.DefaultWait))
	assert.False(t, alive.Load())
	assert.Equal(t, 0, pool.DelayedLength())
}
