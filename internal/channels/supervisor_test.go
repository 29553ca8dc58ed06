package channels

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakePoller struct {
	healthy atomic.Bool
	polls   atomic.Int32
}

func newFakePoller() *fakePoller {
	p := &fakePoller{}
	p.healthy.Store(true)
	return p
}

func (p *fakePoller) Poll(stopRequested *atomic.Bool, touch func()) {
	p.polls.Add(1)
	touch()
	for !stopRequested.Load() {
		time.Sleep(time.Millisecond)
	}
}

func (p *fakePoller) HealthProbe() bool { return p.healthy.Load() }

// TestChannelSupervisor_TickRestartsOnStaleness exercises §4.8's tick
// logic directly (bypassing the real 60s watch interval) to keep the
// test fast: a stale last_activity triggers record_failure and, while
// BackingOff, a join-sleep-respawn cycle.
func TestChannelSupervisor_TickRestartsOnStaleness(t *testing.T) {
	s := NewChannelSupervisor()
	poller := newFakePoller()

	entry := &supervisedEntry{
		name:       "test",
		poller:     poller,
		state:      &loopState{},
		supervised: NewSupervisedChannel(5),
	}
	s.startPoll(entry)
	// Force staleness by back-dating last_activity beyond the threshold.
	entry.state.lastActivity.Store(time.Now().Add(-2 * StaleThreshold).Unix())

	s.tick(entry)

	if entry.supervised.RestartCount() != 1 {
		t.Errorf("RestartCount = %d, want 1 after one stale tick", entry.supervised.RestartCount())
	}
	if poller.polls.Load() != 2 {
		t.Errorf("polls = %d, want 2 (original + respawn)", poller.polls.Load())
	}

	s.Shutdown()
}

func TestChannelSupervisor_TickHealthyNoRestart(t *testing.T) {
	s := NewChannelSupervisor()
	poller := newFakePoller()

	entry := &supervisedEntry{
		name:       "test",
		poller:     poller,
		state:      &loopState{},
		supervised: NewSupervisedChannel(5),
	}
	s.startPoll(entry)
	entry.state.touch()

	s.tick(entry)

	if entry.supervised.State() != StateRunning {
		t.Errorf("state = %v, want Running", entry.supervised.State())
	}
	if poller.polls.Load() != 1 {
		t.Errorf("polls = %d, want 1 (no restart)", poller.polls.Load())
	}

	s.Shutdown()
}

func TestChannelSupervisor_GaveUpStopsRestarting(t *testing.T) {
	s := NewChannelSupervisor()
	poller := newFakePoller()
	poller.healthy.Store(false)

	entry := &supervisedEntry{
		name:       "test",
		poller:     poller,
		state:      &loopState{},
		supervised: NewSupervisedChannel(2),
	}
	s.startPoll(entry)

	s.tick(entry)
	s.tick(entry)

	if !entry.supervised.GaveUp() {
		t.Fatalf("state = %v, want GaveUp", entry.supervised.State())
	}

	pollsBefore := poller.polls.Load()
	s.tick(entry)
	if poller.polls.Load() != pollsBefore {
		t.Errorf("tick() after GaveUp should not respawn; polls went %d -> %d", pollsBefore, poller.polls.Load())
	}

	s.Shutdown()
}
