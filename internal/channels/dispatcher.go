package channels

import (
	"sync/atomic"

	"github.com/nullclaw/nullclaw/internal/bus"
	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/scrub"
)

// Stats mirrors the counters spec.md §4.6 requires the dispatcher to
// keep. Read with Snapshot; individual fields are updated with atomics
// so Run's single goroutine never contends with a reader.
type Stats struct {
	eventsDispatched          atomic.Int64
	eventsDroppedUnknownChannel atomic.Int64
	sendFailures              atomic.Int64
}

// Snapshot is a point-in-time, non-atomic copy of Stats for reporting.
type Snapshot struct {
	EventsDispatched            int64
	EventsDroppedUnknownChannel int64
	SendFailures                int64
}

// Snapshot reads the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		EventsDispatched:            s.eventsDispatched.Load(),
		EventsDroppedUnknownChannel: s.eventsDroppedUnknownChannel.Load(),
		SendFailures:                s.sendFailures.Load(),
	}
}

// Dispatcher is the single-thread outbound consumer described in
// spec.md §4.6: it receives from the Bus, looks up the target channel by
// name, and invokes its send capability. Events targeting the same
// channel are delivered in enqueue order because the Bus is itself FIFO
// and Run is single-threaded; no ordering is implied across channels.
type Dispatcher struct {
	registry *Registry
	bus      *bus.Bus
	Stats    Stats
}

// NewDispatcher builds a Dispatcher over registry and b. Run must be
// called (typically in its own goroutine) to begin consuming events.
func NewDispatcher(registry *Registry, b *bus.Bus) *Dispatcher {
	return &Dispatcher{registry: registry, bus: b}
}

// Run consumes events until the Bus returns EndOfStream (Recv's ok=false),
// which happens after every already-queued event has been delivered
// following Close. It never logs unscrubbed event payloads.
func (d *Dispatcher) Run() {
	for {
		event, ok := d.bus.Recv()
		if !ok {
			return
		}
		d.dispatch(event)
	}
}

func (d *Dispatcher) dispatch(event bus.Event) {
	sender, ok := d.registry.Lookup(event.TargetChannel)
	if !ok {
		d.Stats.eventsDroppedUnknownChannel.Add(1)
		logger.WarnCF("dispatcher", "dropping event for unknown channel", logger.Fields{
			"channel": event.TargetChannel,
		})
		return
	}

	if err := sender.Send(event.ChatID, event.Payload); err != nil {
		d.Stats.sendFailures.Add(1)
		logger.WarnCF("dispatcher", "send failed", logger.Fields{
			"channel": event.TargetChannel,
			"error":   scrub.SanitizeAPIError(err.Error()),
		})
		return
	}
	d.Stats.eventsDispatched.Add(1)
}
