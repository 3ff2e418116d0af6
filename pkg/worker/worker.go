package worker

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/inputrec/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// job is a ready task with its pool-assigned id
type job struct {
	id uint64
	fn types.TaskFunc
}

// Worker represents a single worker goroutine of a ThreadPool
type Worker struct {
	id    int
	state int32 // atomic state
	pool  *ThreadPool
	done  chan struct{}

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastTaskTime   int64 // Unix nanosecond timestamp
}

func newWorker(id int, pool *ThreadPool) *Worker {
	return &Worker{
		id:    id,
		state: int32(WorkerStateIdle),
		pool:  pool,
		done:  make(chan struct{}),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// Done is closed once the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// run blocks on the pool's ready queue and executes tasks until the pool
// stops dispatching. A task that calls runtime.Goexit ends the current
// goroutine; the worker then continues on a fresh one.
func (w *Worker) run() {
	stopped := false
	defer func() {
		if !stopped {
			go w.run()
			return
		}
		atomic.StoreInt32(&w.state, int32(WorkerStateStopped))
		close(w.done)
	}()

	for {
		j, ok := w.pool.next()
		if !ok {
			stopped = true
			return
		}
		w.processTask(j)
	}
}

// processTask processes a single task
func (w *Worker) processTask(j job) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	startTime := w.pool.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	returned := false
	defer func() {
		if !returned {
			// recover cannot stop Goexit, so account for the task while unwinding
			w.finishTask(j, fmt.Errorf("task %d: %w", j.id, types.ErrTaskGoexit), w.pool.clock.Since(startTime))
		}
	}()

	err := w.executeTask(j)
	returned = true
	w.finishTask(j, err, w.pool.clock.Since(startTime))
}

// finishTask records the task outcome with the pool
func (w *Worker) finishTask(j job, err error, executionTime time.Duration) {
	if err != nil {
		atomic.AddInt64(&w.totalFailed, 1)
		w.pool.taskFailed(w.id, j, err, executionTime)
		return
	}
	atomic.AddInt64(&w.totalProcessed, 1)
	w.pool.taskCompleted()
}

// executeTask executes a task with panic recovery support
func (w *Worker) executeTask(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			err = types.NewTaskPanicError(j.id, r, append([]byte(nil), buf[:n]...))
		}
	}()

	j.fn()
	return nil
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		LastTaskTime:   time.Unix(0, atomic.LoadInt64(&w.lastTaskTime)),
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetErrorRate gets the error rate
func (ws WorkerStats) GetErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}
