package scheduler

import (
	"time"

	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/scrub"
)

const (
	backoffBase = 1 * time.Second
	backoffCap  = 60 * time.Second
)

// Supervise runs sched.Loop repeatedly, per spec.md §4.9. See
// superviseLoop for the restart/backoff behavior.
func Supervise(sched *Scheduler, shutdown func() bool) {
	superviseLoop(sched.Loop, shutdown)
}

// superviseLoop drives runLoop repeatedly: on an unexpected (non-nil
// error) return, it logs a scrubbed reason, sleeps the current
// exponential backoff (doubling from backoffBase, capped at backoffCap),
// and re-enters the loop. It honors shutdown between iterations, and
// returns once shutdown() is true and runLoop has returned cleanly.
// Split from Supervise so tests can drive it with a fake loop function
// instead of a real gronx-backed Scheduler.
func superviseLoop(runLoop func(shutdown func() bool) error, shutdown func() bool) {
	backoff := backoffBase
	for {
		if shutdown() {
			return
		}

		err := runLoop(shutdown)
		if err == nil {
			return
		}

		logger.WarnCF("scheduler", "scheduler loop exited unexpectedly, restarting", logger.Fields{
			"error": scrub.SanitizeAPIError(err.Error()),
		})

		if shutdown() {
			return
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
}
