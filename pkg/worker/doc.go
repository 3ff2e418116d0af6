/*
Package worker provides a fixed-size thread pool with immediate and delayed
task submission, plus a helper for self-resubmitting periodic tasks.

# Overview

ThreadPool owns a fixed number of worker goroutines that block on a shared
ready queue. Tasks reach the ready queue in two ways:
  - Submit enqueues a task immediately
  - AddDelayTask registers a task with a DelayScheduler; a single driver
    goroutine moves it onto the ready queue once its delay has elapsed

Neither call blocks on worker availability. The ready queue is unbounded.

# Lifecycle

A pool moves through Created, Running, Draining and Stopped:

	pool, err := worker.NewThreadPool(&worker.ThreadPoolConfig{PoolSize: 4})
	if err != nil {
		return err
	}
	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Close()

	_ = pool.Submit(func() { fmt.Println("now") })
	_ = pool.AddDelayTask(50*time.Millisecond, func() { fmt.Println("later") })

Shutdown moves a running pool to Draining. New submissions fail with
types.ErrPoolClosed, ready tasks no worker has claimed yet and delayed
tasks that are not yet due are dropped without running, and tasks already
executing finish. Once every worker and the driver have exited the pool is
Stopped. Shutdown never blocks and may be called from inside a task; Close
additionally waits for Stopped, bounded by StopTimeout.

# Ordering

Tasks are handed to workers in the order they became ready, with delayed
tasks of equal due time released in submission order. With more than one
worker there is no execution-order guarantee between tasks that are ready
at the same time.

# Failures

A panicking task is recovered on its worker and reported as a
*types.TaskPanicError through the pool's handler chain: a zerolog logging
handler and, when configured, ThreadPoolConfig.ErrorHandler. The worker
continues with its next task. A task that calls runtime.Goexit is reported
as types.ErrTaskGoexit and its worker loop restarts on a fresh goroutine.

# Periodic Tasks

Repeat installs a task that re-enqueues itself with AddDelayTask after each
run and stops once its liveness flag is cleared:

	var alive atomic.Bool
	alive.Store(true)
	_ = worker.Repeat(pool, 250*time.Microsecond, &alive, poll)
	// later
	alive.Store(false)
*/
package worker
