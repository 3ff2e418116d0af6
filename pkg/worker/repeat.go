package worker

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jzx17/inputrec/pkg/types"
)

// Repeat runs fn on pool every interval for as long as alive reports true.
//
// There is no timer goroutine: each run re-enqueues itself through
// AddDelayTask as its final action. A run checks alive on entry and does
// nothing once it is cleared, so after alive flips fn executes at most once
// more and nothing is left scheduled. The cadence also ends when the pool
// rejects a resubmission, in which case alive is cleared so observers see
// that nothing is scheduled any more. The first run is due immediately.
//
// Runs never overlap: the next run is only scheduled after fn returns, so
// the effective period is interval plus the execution time of fn.
func Repeat(pool types.DelaySubmitter, interval time.Duration, alive *atomic.Bool, fn types.TaskFunc) error {
	if fn == nil {
		return types.ErrNilTask
	}
	if alive == nil {
		return fmt.Errorf("repeat: nil liveness flag")
	}
	if interval < 0 {
		interval = 0
	}

	var tick types.TaskFunc
	tick = func() {
		if !alive.Load() {
			return
		}
		// resubmit even when fn panics so one bad poll does not end the cadence
		defer func() {
			if !alive.Load() {
				return
			}
			if err := pool.AddDelayTask(interval, tick); err != nil {
				alive.Store(false)
			}
		}()
		fn()
	}

	return pool.AddDelayTask(0, tick)
}
