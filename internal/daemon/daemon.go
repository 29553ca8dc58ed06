package daemon

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nullclaw/nullclaw/internal/bus"
	"github.com/nullclaw/nullclaw/internal/channels"
	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/scheduler"
)

// StatusFlushInterval is STATUS_FLUSH_SECONDS from spec.md §4.10.
const StatusFlushInterval = 5 * time.Second

// Gateway is the external HTTP collaborator spec.md §4.10 step 1
// describes as out of scope beyond its interface: a component the
// daemon starts and stops alongside everything else.
type Gateway interface {
	Serve() error
	Shutdown()
}

// Daemon composes the State Store, Bus, Outbound Dispatcher, Channel
// Supervisor, and Scheduler Supervisor into the single orchestrator
// described in spec.md §4.10.
type Daemon struct {
	GatewayAddr string
	Gateway     Gateway

	Bus        *bus.Bus
	Registry   *channels.Registry
	Dispatcher *channels.Dispatcher
	Channels   *channels.ChannelSupervisor
	Scheduler  *scheduler.Scheduler

	State *StateTracker

	shutdown atomic.Bool
	wg       sync.WaitGroup
}

// componentNames lists the fixed component records every daemon start
// creates, per spec.md §4.10: gateway, channels (present whenever any
// inbound channel is configured — always included here since the
// caller decides whether to actually Spawn any), heartbeat, scheduler,
// outbound_dispatcher.
func componentNames() []string {
	return []string{"gateway", "channels", "heartbeat", "scheduler", "outbound_dispatcher"}
}

// New builds a Daemon and its StateTracker, writing the initial state
// file to statePath.
func New(statePath, gatewayAddr string, gw Gateway, b *bus.Bus, registry *channels.Registry, sched *scheduler.Scheduler) *Daemon {
	d := &Daemon{
		GatewayAddr: gatewayAddr,
		Gateway:     gw,
		Bus:         b,
		Registry:    registry,
		Channels:    channels.NewChannelSupervisor(),
		Scheduler:   sched,
		State:       NewStateTracker(statePath, gatewayAddr, componentNames()),
	}
	d.Dispatcher = channels.NewDispatcher(registry, b)
	return d
}

// Run starts every component thread and blocks until shutdown is
// requested and all threads have joined, per spec.md §4.10's start-up
// and shutdown order.
func (d *Daemon) Run() {
	if err := EnsureDir(d.State.path); err != nil {
		logger.ErrorCF("daemon", "failed to create state directory", logger.Fields{"error": err.Error()})
	}
	d.State.FlushLogged()

	d.spawn("gateway", d.runGateway)
	d.spawn("heartbeat", d.runHeartbeat)
	if d.Scheduler != nil {
		d.spawn("scheduler", d.runScheduler)
	}
	d.spawn("outbound_dispatcher", d.runDispatcher)

	d.State.MarkRunning("channels")

	d.watchShutdown()

	d.wg.Wait()
	d.State.FlushLogged()
}

func (d *Daemon) spawn(name string, fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

func (d *Daemon) runGateway() {
	if d.Gateway == nil {
		d.State.MarkRunning("gateway")
		return
	}
	d.State.MarkRunning("gateway")
	if err := d.Gateway.Serve(); err != nil && !d.shutdown.Load() {
		d.State.MarkError("gateway", err.Error())
	}
}

// heartbeatPollInterval is how often runHeartbeat checks the shutdown
// flag; it must be smaller than StatusFlushInterval so shutdown is
// observed promptly instead of waiting out a full flush period.
const heartbeatPollInterval = 1 * time.Second

func (d *Daemon) runHeartbeat() {
	d.State.MarkRunning("heartbeat")
	var elapsed time.Duration
	for {
		if d.shutdown.Load() {
			return
		}
		time.Sleep(heartbeatPollInterval)
		if d.shutdown.Load() {
			return
		}
		elapsed += heartbeatPollInterval
		if elapsed >= StatusFlushInterval {
			elapsed = 0
			d.State.FlushLogged()
		}
	}
}

func (d *Daemon) runScheduler() {
	d.State.MarkRunning("scheduler")
	scheduler.Supervise(d.Scheduler, d.shutdown.Load)
}

func (d *Daemon) runDispatcher() {
	d.State.MarkRunning("outbound_dispatcher")
	d.Dispatcher.Run()
}

// watchShutdown polls the shutdown flag once per second, per spec.md
// §4.10's main-thread loop, then tears every component down in reverse
// start order.
func (d *Daemon) watchShutdown() {
	for !d.shutdown.Load() {
		time.Sleep(1 * time.Second)
	}
	d.teardown()
}

func (d *Daemon) teardown() {
	d.Channels.Shutdown()
	d.Bus.Close()
	if d.Gateway != nil {
		d.Gateway.Shutdown()
	}
}

// RequestShutdown sets the single cooperative shutdown flag. Safe to
// call any number of times, per invariant 6 in spec.md §3.
func (d *Daemon) RequestShutdown() {
	d.shutdown.Store(true)
}
