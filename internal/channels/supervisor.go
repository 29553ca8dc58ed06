package channels

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nullclaw/nullclaw/internal/logger"
)

const (
	// ChannelWatchInterval is CHANNEL_WATCH_INTERVAL_SECS from spec.md §4.8.
	ChannelWatchInterval = 60 * time.Second
	// StaleThreshold is STALE_THRESHOLD_SECS from spec.md §4.8.
	StaleThreshold = 90 * time.Second
)

// Poller is an inbound channel's blocking polling loop, supervised by
// ChannelSupervisor. Poll must check stopRequested before every blocking
// operation and call touch() on every inbound event or successful poll,
// per spec.md §4.8 step 2.
type Poller interface {
	Poll(stopRequested *atomic.Bool, touch func())
	// HealthProbe optionally reports liveness beyond activity staleness.
	// Channels without an active probe should return true unconditionally.
	HealthProbe() bool
}

// loopState is the per-channel bookkeeping described in spec.md §4.8
// step 1: LoopState { last_activity, stop_requested, thread_handle }.
// pollWG tracks only the poller goroutine, so the watch loop (which
// calls Wait to join a restarting poller) never waits on its own
// completion; watchWG tracks the watch loop itself, joined only by
// Shutdown.
type loopState struct {
	lastActivity  atomic.Int64
	stopRequested atomic.Bool
	pollWG        sync.WaitGroup
	watchWG       sync.WaitGroup
}

func (l *loopState) touch() {
	l.lastActivity.Store(time.Now().Unix())
}

// ChannelSupervisor orchestrates per-channel polling threads: spawning,
// restart-on-stale-or-failed-probe, and bounded-restart shutdown, per
// spec.md §4.8. Each poller runs behind an atomic.Bool run flag guarding
// its long-lived goroutine.
type ChannelSupervisor struct {
	mu       sync.Mutex
	channels map[string]*supervisedEntry
	shutdown atomic.Bool
}

type supervisedEntry struct {
	name       string
	poller     Poller
	state      *loopState
	supervised *SupervisedChannel
	onRunning  func(running bool)
}

// NewChannelSupervisor builds an empty supervisor.
func NewChannelSupervisor() *ChannelSupervisor {
	return &ChannelSupervisor{channels: make(map[string]*supervisedEntry)}
}

// Spawn registers and starts supervision for a channel: it allocates the
// LoopState, spawns poller.Poll in its own goroutine, wraps it in a
// SupervisedChannel with max_restarts, and starts the watch loop in a
// second goroutine. onRunning reports component up/down transitions to
// the daemon's component tracker (may be nil).
func (s *ChannelSupervisor) Spawn(name string, poller Poller, maxRestarts int, onRunning func(running bool)) {
	entry := &supervisedEntry{
		name:       name,
		poller:     poller,
		state:      &loopState{},
		supervised: NewSupervisedChannel(maxRestarts),
		onRunning:  onRunning,
	}
	entry.state.touch()

	s.mu.Lock()
	s.channels[name] = entry
	s.mu.Unlock()

	s.startPoll(entry)

	entry.state.watchWG.Add(1)
	go s.watchLoop(entry)
}

func (s *ChannelSupervisor) startPoll(entry *supervisedEntry) {
	entry.state.pollWG.Add(1)
	go func() {
		defer entry.state.pollWG.Done()
		entry.poller.Poll(&entry.state.stopRequested, entry.state.touch)
	}()
}

func (s *ChannelSupervisor) watchLoop(entry *supervisedEntry) {
	defer entry.state.watchWG.Done()

	for {
		time.Sleep(ChannelWatchInterval)
		if s.shutdown.Load() {
			return
		}
		s.tick(entry)
		if entry.supervised.GaveUp() {
			logger.ErrorCF("supervisor", "channel exhausted restart budget, excluded from supervision", logger.Fields{
				"name": entry.name,
			})
			if entry.onRunning != nil {
				entry.onRunning(false)
			}
			return
		}
	}
}

// tick implements one iteration of spec.md §4.8 step 5: staleness check,
// health probe, and restart-on-failure. Stale alone is sufficient to
// trigger a restart even when the probe passes.
func (s *ChannelSupervisor) tick(entry *supervisedEntry) {
	now := time.Now().Unix()
	lastActivity := entry.state.lastActivity.Load()
	stale := now-lastActivity > int64(StaleThreshold.Seconds())

	probeOK := true
	if entry.poller.HealthProbe() != true {
		probeOK = false
	}

	if !stale && probeOK {
		entry.supervised.RecordSuccess()
		if entry.onRunning != nil {
			entry.onRunning(true)
		}
		return
	}

	entry.supervised.RecordFailure(now)
	if !entry.supervised.ShouldRestart() {
		return
	}

	entry.state.stopRequested.Store(true)
	entry.state.pollWG.Wait()

	backoff := time.Duration(entry.supervised.CurrentBackoffMs()) * time.Millisecond
	time.Sleep(backoff)

	entry.state.stopRequested.Store(false)
	entry.state.lastActivity.Store(time.Now().Unix())
	s.startPoll(entry)
	// record_success() is deferred to the next healthy tick, not called
	// here: restart_count must stay monotonically non-decreasing across
	// a respawn (invariant 2), so a bare respawn does not reset it.
}

// Shutdown sets stop_requested for every supervised channel and joins
// every thread, per spec.md §4.8 step 6.
func (s *ChannelSupervisor) Shutdown() {
	s.shutdown.Store(true)

	s.mu.Lock()
	entries := make([]*supervisedEntry, 0, len(s.channels))
	for _, e := range s.channels {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.state.stopRequested.Store(true)
	}
	for _, e := range entries {
		e.state.pollWG.Wait()
		e.state.watchWG.Wait()
	}
}
