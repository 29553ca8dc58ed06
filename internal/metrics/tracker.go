// Package metrics aggregates per-call token usage (internal/usage) into
// a running session total and an append-only audit log, so operators
// can see cumulative spend without re-parsing every provider response.
// A pure token-count aggregator, not a cost-estimation tracker: spec.md
// §4.13 defines only the {prompt, completion, total} accounting and
// carries no pricing model, so no dollar-cost table is kept here.
package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nullclaw/nullclaw/internal/usage"
)

// Event records one provider call's usage for the audit log.
type Event struct {
	Timestamp string `json:"ts"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Prompt    int    `json:"prompt"`
	Completion int   `json:"completion"`
	Total     int    `json:"total"`
}

// Totals is the running sum across every recorded Event in a session.
type Totals struct {
	Calls      int
	Prompt     int
	Completion int
	Total      int
}

// Tracker appends usage events to workspace/metrics/tokens.jsonl and
// keeps an in-memory running total for the current process's session.
type Tracker struct {
	filePath string

	mu     sync.Mutex
	totals Totals
}

// NewTracker builds a Tracker writing under workspace/metrics.
func NewTracker(workspace string) *Tracker {
	dir := filepath.Join(workspace, "metrics")
	os.MkdirAll(dir, 0o755)
	return &Tracker{filePath: filepath.Join(dir, "tokens.jsonl")}
}

// Record adds info to the running totals and appends an Event to the
// JSONL log. A write failure is logged nowhere and swallowed — per the
// teacher's tracker, metrics are best-effort and must never block or
// fail the call they're measuring.
func (t *Tracker) Record(provider, model string, info usage.Info) {
	t.mu.Lock()
	t.totals.Calls++
	t.totals.Prompt += info.PromptTokens
	t.totals.Completion += info.CompletionTokens
	t.totals.Total += info.TotalTokens
	t.mu.Unlock()

	event := Event{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Provider:   provider,
		Model:      model,
		Prompt:     info.PromptTokens,
		Completion: info.CompletionTokens,
		Total:      info.TotalTokens,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(data, '\n'))
}

// Totals returns a point-in-time copy of the running session totals.
func (t *Tracker) Totals() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}
