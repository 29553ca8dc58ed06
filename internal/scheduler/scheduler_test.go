package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsDueJobAndSkipsNotDue(t *testing.T) {
	var dueRuns, neverRuns atomic.Int32

	jobs := []Job{
		{Name: "every-minute", Cron: "* * * * *", Run: func() error { dueRuns.Add(1); return nil }},
		{Name: "never", Cron: "0 0 31 2 *", Run: func() error { neverRuns.Add(1); return nil }},
	}
	sched := NewScheduler(jobs, time.Millisecond)

	if err := sched.runDue(time.Now()); err != nil {
		t.Fatalf("runDue: %v", err)
	}
	if dueRuns.Load() != 1 {
		t.Errorf("dueRuns = %d, want 1", dueRuns.Load())
	}
	if neverRuns.Load() != 0 {
		t.Errorf("neverRuns = %d, want 0", neverRuns.Load())
	}
}

func TestScheduler_DoesNotRerunWithinSameMinute(t *testing.T) {
	var runs atomic.Int32
	jobs := []Job{{Name: "every-minute", Cron: "* * * * *", Run: func() error { runs.Add(1); return nil }}}
	sched := NewScheduler(jobs, time.Millisecond)

	now := time.Now()
	_ = sched.runDue(now)
	_ = sched.runDue(now.Add(time.Second))
	_ = sched.runDue(now.Add(30 * time.Second))

	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 (no re-run within the same minute)", runs.Load())
	}
}

func TestScheduler_InvalidCronSkipsJobWithoutAborting(t *testing.T) {
	var runs atomic.Int32
	jobs := []Job{
		{Name: "bad", Cron: "not a cron expr", Run: func() error { runs.Add(1); return nil }},
		{Name: "good", Cron: "* * * * *", Run: func() error { runs.Add(1); return nil }},
	}
	sched := NewScheduler(jobs, time.Millisecond)

	if err := sched.runDue(time.Now()); err != nil {
		t.Fatalf("runDue: %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 (only the valid job ran)", runs.Load())
	}
}

func TestSuperviseLoop_RestartsOnUnexpectedError(t *testing.T) {
	var calls atomic.Int32
	loopErr := errors.New("boom")

	runLoop := func(shutdown func() bool) error {
		n := calls.Add(1)
		if n < 3 {
			return loopErr
		}
		return nil
	}

	superviseLoop(runLoop, func() bool { return false })

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSuperviseLoop_StopsImmediatelyWhenShutdownAlreadyRequested(t *testing.T) {
	var calls atomic.Int32
	runLoop := func(shutdown func() bool) error {
		calls.Add(1)
		return errors.New("should never run")
	}

	superviseLoop(runLoop, func() bool { return true })

	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 when shutdown already requested", calls.Load())
	}
}
