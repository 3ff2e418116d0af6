package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/jzx17/inputrec/internal/errors"
	"github.com/jzx17/inputrec/pkg/scheduler"
	"github.com/jzx17/inputrec/pkg/types"
)

// Ensure compile-time interface compliance.
var _ types.Pool = (*ThreadPool)(nil)

// ThreadPoolConfig defines configuration for the thread pool
type ThreadPoolConfig struct {
	// PoolSize is the number of worker goroutines
	PoolSize int

	// StopTimeout bounds how long Close waits for workers to exit
	StopTimeout time.Duration

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler is called with every task failure (optional)
	ErrorHandler types.ErrorHandler

	// Logger receives task failures and lifecycle events
	Logger zerolog.Logger
}

// DefaultThreadPoolConfig returns default configuration
func DefaultThreadPoolConfig() *ThreadPoolConfig {
	return &ThreadPoolConfig{
		PoolSize:    runtime.NumCPU(),
		StopTimeout: 10 * time.Second,
		Clock:       types.NewRealClock(),
		Logger:      zerolog.Nop(),
	}
}

// ThreadPool runs tasks on a fixed set of workers. Tasks come from Submit
// or are released by an internal DelayScheduler once their delay elapses.
//
// Among tasks that become ready at effectively the same time, dispatch order
// is FIFO but execution order is not guaranteed once more than one worker is
// idle: workers race to claim the next ready task.
type ThreadPool struct {
	config  *ThreadPoolConfig
	clock   types.Clock
	logger  zerolog.Logger
	workers []*Worker
	delayed *scheduler.DelayScheduler
	errors  *errors.HandlerChain

	// ready queue, guarded by mu; never held across task execution
	mu    sync.Mutex
	cond  *sync.Cond
	ready *queue.Queue
	state int32 // types.PoolState, written under mu, read atomically

	nextID    atomic.Uint64
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	stopDriver chan struct{}
	driverDone chan struct{}
	stopped    chan struct{}
	stopCtx    func() bool
}

// NewThreadPool creates a new thread pool
func NewThreadPool(config *ThreadPoolConfig) (*ThreadPool, error) {
	if config == nil {
		config = DefaultThreadPoolConfig()
	}

	if config.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = 10 * time.Second
	}

	// Ensure clock is set
	config.Clock = types.OrRealClock(config.Clock)

	p := &ThreadPool{
		config:     config,
		clock:      config.Clock,
		logger:     config.Logger.With().Str("component", "threadpool").Logger(),
		delayed:    scheduler.NewDelayScheduler(config.Clock),
		ready:      queue.New(),
		stopDriver: make(chan struct{}),
		driverDone: make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.errors = errors.NewHandlerChain(errors.NewLoggingHandler(p.logger))
	if config.ErrorHandler != nil {
		p.errors.Add(errors.NewCallbackHandler(config.ErrorHandler))
	}

	p.workers = make([]*Worker, config.PoolSize)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	return p, nil
}

// Start spawns the workers and the delay driver. Cancelling ctx shuts the
// pool down.
func (p *ThreadPool) Start(ctx context.Context) error {
	p.mu.Lock()
	switch types.PoolState(p.state) {
	case types.PoolCreated:
	case types.PoolRunning:
		p.mu.Unlock()
		return types.ErrPoolAlreadyStarted
	default:
		p.mu.Unlock()
		return types.ErrPoolClosed
	}
	atomic.StoreInt32(&p.state, int32(types.PoolRunning))

	for _, w := range p.workers {
		go w.run()
	}
	go p.drive()
	go p.awaitStop()

	if ctx != nil {
		p.stopCtx = context.AfterFunc(ctx, p.Shutdown)
	}
	p.mu.Unlock()

	p.logger.Debug().Int("workers", len(p.workers)).Msg("thread pool started")
	return nil
}

// Submit enqueues task onto the ready queue and wakes one idle worker.
// It never blocks on worker availability.
func (p *ThreadPool) Submit(task types.TaskFunc) error {
	if task == nil {
		return types.ErrNilTask
	}

	p.mu.Lock()
	if err := p.acceptingLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.ready.Add(job{id: p.nextID.Add(1), fn: task})
	p.mu.Unlock()

	p.submitted.Add(1)
	p.cond.Signal()
	return nil
}

// AddDelayTask registers task to be enqueued once delay has elapsed.
// The caller never blocks; the delay driver releases the task.
func (p *ThreadPool) AddDelayTask(delay time.Duration, task types.TaskFunc) error {
	if task == nil {
		return types.ErrNilTask
	}

	p.mu.Lock()
	err := p.acceptingLocked()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if err := p.delayed.Schedule(delay, task); err != nil {
		// lost the race with Shutdown
		return types.ErrPoolClosed
	}
	p.submitted.Add(1)
	return nil
}

func (p *ThreadPool) acceptingLocked() error {
	switch types.PoolState(p.state) {
	case types.PoolRunning:
		return nil
	case types.PoolCreated:
		return types.ErrPoolNotStarted
	default:
		return types.ErrPoolClosed
	}
}

// next blocks until a ready task is available or the pool stops
// dispatching. Tasks still queued when the pool leaves Running are never
// handed out.
func (p *ThreadPool) next() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.ready.Length() == 0 && types.PoolState(p.state) == types.PoolRunning {
		p.cond.Wait()
	}
	if types.PoolState(p.state) != types.PoolRunning {
		return job{}, false
	}
	return p.ready.Remove().(job), true
}

// release moves a due task onto the ready queue
func (p *ThreadPool) release(task types.TaskFunc) {
	p.mu.Lock()
	if types.PoolState(p.state) != types.PoolRunning {
		p.mu.Unlock()
		p.dropped.Add(1)
		return
	}
	p.ready.Add(job{id: p.nextID.Add(1), fn: task})
	p.mu.Unlock()
	p.cond.Signal()
}

// drive releases due delayed tasks, sleeping on a timer until the next due
// time or until a new earliest entry is scheduled
func (p *ThreadPool) drive() {
	defer close(p.driverDone)

	for {
		now := p.clock.Now()
		for {
			task, ok := p.delayed.PopReady(now)
			if !ok {
				break
			}
			p.release(task)
		}

		var (
			timer types.Timer
			fired <-chan time.Time
		)
		if due, ok := p.delayed.PeekNextDue(); ok {
			wait := due.Sub(p.clock.Now())
			if wait <= 0 {
				continue
			}
			timer = p.clock.NewTimer(wait)
			fired = timer.C()
		}

		select {
		case <-p.stopDriver:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-p.delayed.Notify():
		case <-fired:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// awaitStop marks the pool stopped once every worker and the driver exit
func (p *ThreadPool) awaitStop() {
	for _, w := range p.workers {
		<-w.Done()
	}
	<-p.driverDone

	p.mu.Lock()
	atomic.StoreInt32(&p.state, int32(types.PoolStopped))
	p.mu.Unlock()
	close(p.stopped)

	p.logger.Debug().
		Int64("completed", p.completed.Load()).
		Int64("failed", p.failed.Load()).
		Int64("dropped", p.dropped.Load()).
		Msg("thread pool stopped")
}

// Shutdown stops accepting work, discards ready tasks that no worker has
// claimed and delayed tasks that are not yet due, and wakes every worker.
// In-flight tasks run to completion. Shutdown does not block, is idempotent
// and may be called from inside a running task.
//
// Submissions racing with Shutdown are either rejected with ErrPoolClosed or
// accepted and then dropped without running.
func (p *ThreadPool) Shutdown() {
	p.mu.Lock()
	switch types.PoolState(p.state) {
	case types.PoolCreated:
		atomic.StoreInt32(&p.state, int32(types.PoolStopped))
		p.mu.Unlock()
		p.delayed.Close()
		close(p.stopped)
		return
	case types.PoolRunning:
		atomic.StoreInt32(&p.state, int32(types.PoolDraining))
	default:
		p.mu.Unlock()
		return
	}
	discarded := p.ready.Length()
	for p.ready.Length() > 0 {
		p.ready.Remove()
	}
	stopCtx := p.stopCtx
	p.mu.Unlock()

	p.cond.Broadcast()
	pending := p.delayed.Close()
	close(p.stopDriver)
	if stopCtx != nil {
		stopCtx()
	}

	p.dropped.Add(int64(discarded + pending))
	p.logger.Debug().
		Int("ready_dropped", discarded).
		Int("delayed_dropped", pending).
		Msg("thread pool draining")
}

// Wait blocks until every worker has exited or ctx is done
func (p *ThreadPool) Wait(ctx context.Context) error {
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the pool reaches the Stopped state
func (p *ThreadPool) Done() <-chan struct{} {
	return p.stopped
}

// Close shuts the pool down and waits for every worker to exit, bounded by
// StopTimeout. Calling Close from inside a task waits for that task itself;
// use Shutdown there instead.
func (p *ThreadPool) Close() error {
	p.Shutdown()

	select {
	case <-p.stopped:
		return nil
	case <-p.clock.After(p.config.StopTimeout):
		return fmt.Errorf("waiting for workers to stop: %w", types.ErrTimeout)
	}
}

// taskCompleted records a successful task
func (p *ThreadPool) taskCompleted() {
	p.completed.Add(1)
}

// taskFailed records a failed task and reports it through the handler chain
func (p *ThreadPool) taskFailed(workerID int, j job, err error, d time.Duration) {
	p.failed.Add(1)

	errCtx := errors.NewErrorContext(err, j.id, workerID, p.clock.Now())
	errCtx.Duration = d
	if herr := p.errors.HandleError(context.Background(), errCtx); herr != nil {
		p.logger.Warn().Err(herr).Uint64("task_id", j.id).Msg("error handler failed")
	}
}

// State returns the pool lifecycle state
func (p *ThreadPool) State() types.PoolState {
	return types.PoolState(atomic.LoadInt32(&p.state))
}

// IsRunning checks if the pool accepts work
func (p *ThreadPool) IsRunning() bool {
	return p.State() == types.PoolRunning
}

// Size returns the number of workers
func (p *ThreadPool) Size() int {
	return len(p.workers)
}

// QueueLength returns the number of ready tasks not yet claimed by a worker
func (p *ThreadPool) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready.Length()
}

// DelayedLength returns the number of delayed tasks not yet due
func (p *ThreadPool) DelayedLength() int {
	return p.delayed.Len()
}

// Stats gets pool statistics
func (p *ThreadPool) Stats() types.PoolStats {
	var active int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			active++
		}
	}

	return types.PoolStats{
		PoolSize:      len(p.workers),
		ActiveWorkers: active,
		QueueSize:     p.QueueLength(),
		DelayedTasks:  p.DelayedLength(),
		Submitted:     p.submitted.Load(),
		Completed:     p.completed.Load(),
		Failed:        p.failed.Load(),
		Dropped:       p.dropped.Load(),
	}
}

// GetWorkerStats gets statistics of all Workers
func (p *ThreadPool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}
