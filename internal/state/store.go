// Package state maintains the single PersistedLastChannel record that
// survives a daemon restart, persisted atomically to disk.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nullclaw/nullclaw/internal/logger"
)

// Snapshot is a point-in-time, caller-owned copy of the last-active
// channel record. Unlike Store.Get, its fields remain valid across any
// subsequent Store.Set call.
type Snapshot struct {
	Channel   string
	ChatID    string
	UpdatedAt int64
}

type persisted struct {
	LastChannel *string `json:"last_channel"`
	LastChatID  *string `json:"last_chat_id"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Store is a thread-safe, atomically-persisted record of the last active
// channel and chat. All operations serialize through a single mutex; the
// struct holds no nested locks.
type Store struct {
	mu      sync.Mutex
	channel *string
	chatID  *string
	updated int64
	path    string
}

// NewStore creates a Store backed by path. It does not load from disk;
// call Load explicitly, matching the fresh-start default when no prior
// state file exists.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Set records the given channel and chat id as the new last-active pair.
// updated-at advances to the current wall-clock second; repeated calls
// within the same second are still guaranteed to be non-decreasing, and
// across any two calls in a process it is strictly increasing once a
// new second has elapsed (the monotonic guarantee in spec.md §4.2 holds
// only up to wall-clock resolution).
func (s *Store) Set(channel, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := channel
	cid := chatID
	s.channel = &ch
	s.chatID = &cid

	now := time.Now().Unix()
	if now <= s.updated {
		now = s.updated + 1
	}
	s.updated = now
}

// Get returns copies of the current channel and chat id, or ok=false if
// neither has ever been set.
func (s *Store) Get() (channel, chatID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil && s.chatID == nil {
		return "", "", false
	}
	if s.channel != nil {
		channel = *s.channel
	}
	if s.chatID != nil {
		chatID = *s.chatID
	}
	return channel, chatID, true
}

// UpdatedAt returns the unix timestamp of the last Set call, or 0 if
// none has occurred.
func (s *Store) UpdatedAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// Save serializes the record to JSON and atomically replaces the state
// file: write a sibling .tmp file, then rename over the final path.
// Readers of the final path never observe a partial write. On
// cross-device rename failure (EXDEV), degrade to a direct write plus
// unlink of the temp file.
func (s *Store) Save() error {
	s.mu.Lock()
	p := persisted{
		LastChannel: s.channel,
		LastChatID:  s.chatID,
		UpdatedAt:   s.updated,
	}
	s.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		// Cross-device rename (EXDEV) or similar: fall back to a direct
		// write rather than aborting the save.
		if werr := os.WriteFile(s.path, data, 0644); werr != nil {
			os.Remove(tmp)
			return werr
		}
		os.Remove(tmp)
	}
	return nil
}

// Load reads the state file if it exists. A missing file is not an
// error (fresh start); a file that fails to parse leaves the in-memory
// state unchanged.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		logger.WarnCF("state", "state file failed to parse, keeping in-memory state", logger.Fields{
			"path":  s.path,
			"error": err.Error(),
		})
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = p.LastChannel
	s.chatID = p.LastChatID
	s.updated = p.UpdatedAt
	return nil
}
