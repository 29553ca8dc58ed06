package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nullclaw/nullclaw/internal/bus"
	"github.com/nullclaw/nullclaw/internal/channels"
	"github.com/nullclaw/nullclaw/internal/scheduler"
)

func TestStateTracker_MarkRunningThenMarkError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon_state.json")
	tr := NewStateTracker(path, "127.0.0.1:8080", []string{"gateway", "scheduler"})

	tr.MarkRunning("gateway")
	snap := tr.Snapshot()
	var gw ComponentRecord
	for _, c := range snap.Components {
		if c.Name == "gateway" {
			gw = c
		}
	}
	if !gw.Running || gw.LastError != nil {
		t.Fatalf("gateway = %+v, want running with no error", gw)
	}

	tr.MarkError("gateway", "connection refused to 10.0.0.5:443")
	snap = tr.Snapshot()
	for _, c := range snap.Components {
		if c.Name == "gateway" {
			gw = c
		}
	}
	if gw.Running {
		t.Errorf("gateway.Running = true after MarkError")
	}
	if gw.LastError == nil || *gw.LastError == "" {
		t.Fatalf("gateway.LastError = nil, want scrubbed reason")
	}
	if gw.RestartCount != 1 {
		t.Errorf("RestartCount = %d, want 1", gw.RestartCount)
	}
}

func TestStateTracker_FlushWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "daemon_state.json")
	tr := NewStateTracker(path, "0.0.0.0:9000", []string{"gateway"})
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestDaemon_RequestShutdownTerminatesRun(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "daemon_state.json")
	b := bus.New()
	registry := channels.NewRegistry()
	sched := scheduler.NewScheduler(nil, time.Millisecond)

	d := New(statePath, "127.0.0.1:0", nil, b, registry, sched)

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	// Give every component thread a moment to start before requesting
	// shutdown, so MarkRunning/MarkError races are exercised too.
	time.Sleep(20 * time.Millisecond)
	d.RequestShutdown()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after RequestShutdown")
	}
}

func TestDaemon_RequestShutdownIsIdempotent(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "daemon_state.json")
	b := bus.New()
	registry := channels.NewRegistry()
	d := New(statePath, "127.0.0.1:0", nil, b, registry, nil)

	d.RequestShutdown()
	d.RequestShutdown()
}
