package channels

import "testing"

func TestSupervisedChannel_InitialStateIsRunning(t *testing.T) {
	s := NewSupervisedChannel(5)
	if s.State() != StateRunning {
		t.Errorf("initial state = %v, want Running", s.State())
	}
}

func TestSupervisedChannel_RecordFailureTransitionsToBackingOff(t *testing.T) {
	s := NewSupervisedChannel(5)
	s.RecordFailure(100)
	if s.State() != StateBackingOff {
		t.Errorf("state = %v, want BackingOff", s.State())
	}
	if !s.ShouldRestart() {
		t.Error("ShouldRestart() = false, want true in BackingOff")
	}
}

func TestSupervisedChannel_RecordSuccessResetsCount(t *testing.T) {
	s := NewSupervisedChannel(5)
	s.RecordFailure(1)
	s.RecordFailure(2)
	s.RecordSuccess()
	if s.State() != StateRunning {
		t.Errorf("state = %v, want Running", s.State())
	}
	if s.RestartCount() != 0 {
		t.Errorf("RestartCount = %d, want 0", s.RestartCount())
	}
}

// TestSupervisedChannel_PropertyP9 exercises P9: after max_restarts
// recorded failures without an intervening success, state is GaveUp and
// should_restart() is false.
func TestSupervisedChannel_PropertyP9(t *testing.T) {
	maxRestarts := 5
	s := NewSupervisedChannel(maxRestarts)
	for i := 0; i < maxRestarts; i++ {
		s.RecordFailure(int64(i))
	}
	if s.State() != StateGaveUp {
		t.Fatalf("state = %v, want GaveUp after %d failures", s.State(), maxRestarts)
	}
	if !s.GaveUp() {
		t.Error("GaveUp() = false, want true")
	}
	if s.ShouldRestart() {
		t.Error("ShouldRestart() = true, want false once GaveUp")
	}
}

func TestSupervisedChannel_CurrentBackoffMsSequence(t *testing.T) {
	s := NewSupervisedChannel(100)
	if got := s.CurrentBackoffMs(); got != 0 {
		t.Errorf("backoff before any failure = %d, want 0", got)
	}

	want := []int64{500, 1000, 2000, 4000, 8000}
	for i, w := range want {
		s.RecordFailure(int64(i))
		if got := s.CurrentBackoffMs(); got != w {
			t.Errorf("after %d failures, backoff = %d, want %d", i+1, got, w)
		}
	}
}

func TestSupervisedChannel_RestartCountMonotonic(t *testing.T) {
	s := NewSupervisedChannel(100)
	prev := 0
	for i := 0; i < 10; i++ {
		s.RecordFailure(int64(i))
		if s.RestartCount() < prev {
			t.Fatalf("restart count decreased: %d < %d", s.RestartCount(), prev)
		}
		prev = s.RestartCount()
	}
}
