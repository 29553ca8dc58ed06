// Package channels implements the Channel Registry, Outbound Dispatcher,
// SupervisedChannel state machine, and Channel Supervisor Thread from
// spec.md §4.6-§4.8: an arbitrary number of independently supervised
// inbound pollers, each an atomic.Bool-guarded goroutine.
package channels

import (
	"sync"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// Sender is the send capability a channel exposes to the Outbound
// Dispatcher: deliver payload text to chatID (empty when the channel has
// no distinct per-chat addressing).
type Sender interface {
	Send(chatID, payload string) error
}

// HealthProbe is implemented by channels with an active health check
// beyond inbound-activity staleness tracking.
type HealthProbe interface {
	Probe() bool
}

// Registry is a name-keyed map of outbound channel handles. Name
// collisions replace the previous registration, per spec.md §4.6.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Sender
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Sender)}
}

// Register inserts channel under name, replacing any existing
// registration for that name.
func (r *Registry) Register(name string, channel Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[name] = channel
	logger.InfoCF("channels", "channel registered", logger.Fields{"name": name})
}

// Unregister removes name from the registry, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, name)
}

// Lookup returns the registered Sender for name, or ok=false if absent.
func (r *Registry) Lookup(name string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.channels[name]
	return s, ok
}
