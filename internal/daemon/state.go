// Package daemon implements the Daemon Orchestrator from spec.md §4.10:
// component bookkeeping, the heartbeat thread, and startup/shutdown
// sequencing over the Bus, Dispatcher, Scheduler Supervisor, and Channel
// Supervisor. Persistence reuses internal/state/store.go's atomic-write
// idiom.
package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/scrub"
)

// ComponentRecord is one entry of DaemonState.Components in spec.md §3.
type ComponentRecord struct {
	Name         string  `json:"name"`
	Running      bool    `json:"running"`
	RestartCount int     `json:"restart_count"`
	LastError    *string `json:"last_error,omitempty"`
}

// DaemonState is the full on-disk shape of daemon_state.json (spec.md
// §6).
type DaemonState struct {
	Status     string            `json:"status"`
	Gateway    string            `json:"gateway"`
	Components []ComponentRecord `json:"components"`
}

// StateTracker owns DaemonState and its atomic persistence. All
// mutation methods are safe for concurrent use: the heartbeat thread,
// the channel supervisor, and the scheduler supervisor each call
// mark_running/mark_error from their own goroutine.
type StateTracker struct {
	mu    sync.Mutex
	state DaemonState
	path  string
}

// NewStateTracker builds a tracker for gateway (host:port) with the
// given component names, all initially not running, and persists it to
// path.
func NewStateTracker(path, gateway string, componentNames []string) *StateTracker {
	components := make([]ComponentRecord, 0, len(componentNames))
	for _, name := range componentNames {
		components = append(components, ComponentRecord{Name: name})
	}
	return &StateTracker{
		path: path,
		state: DaemonState{
			Status:     "running",
			Gateway:    gateway,
			Components: components,
		},
	}
}

// MarkRunning sets {running: true, last_error: nil} for name.
func (t *StateTracker) MarkRunning(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.state.Components {
		if t.state.Components[i].Name == name {
			t.state.Components[i].Running = true
			t.state.Components[i].LastError = nil
			return
		}
	}
}

// MarkError sets {running: false, last_error: scrubbed(reason)} for
// name and increments its restart_count.
func (t *StateTracker) MarkError(name, reason string) {
	scrubbed := scrub.SanitizeAPIError(reason)
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.state.Components {
		if t.state.Components[i].Name == name {
			t.state.Components[i].Running = false
			t.state.Components[i].LastError = &scrubbed
			t.state.Components[i].RestartCount++
			return
		}
	}
}

// Snapshot returns a deep copy of the current state for serialization.
func (t *StateTracker) Snapshot() DaemonState {
	t.mu.Lock()
	defer t.mu.Unlock()
	components := make([]ComponentRecord, len(t.state.Components))
	copy(components, t.state.Components)
	return DaemonState{Status: t.state.Status, Gateway: t.state.Gateway, Components: components}
}

// Flush writes the current state to disk atomically: a sibling .tmp
// file is written then renamed over the final path, degrading to a
// direct write + unlink on cross-device rename failure (EXDEV), per
// spec.md §9.
func (t *StateTracker) Flush() error {
	snapshot := t.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, t.path); err != nil {
		if writeErr := os.WriteFile(t.path, data, 0o644); writeErr != nil {
			return writeErr
		}
		os.Remove(tmp)
	}
	return nil
}

// FlushLogged calls Flush and logs (but does not return) a failure, per
// the State file I/O taxonomy entry in spec.md §7: a save failure is
// logged, state is retained in memory, and the next tick retries.
func (t *StateTracker) FlushLogged() {
	if err := t.Flush(); err != nil {
		logger.WarnCF("daemon", "failed to flush daemon state", logger.Fields{
			"path":  t.path,
			"error": err.Error(),
		})
	}
}

// EnsureDir creates the parent directory of path if missing.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
