package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SnapshotFileName is the fixed file name under the workspace directory
// (spec.md §6).
const SnapshotFileName = "MEMORY_SNAPSHOT.json"

type snapshotEntry struct {
	Key       string `json:"key"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// snapshotPath returns <workspace>/MEMORY_SNAPSHOT.json.
func snapshotPath(workspace string) string {
	return filepath.Join(workspace, SnapshotFileName)
}

// Export writes every `core`-category entry in store to
// <workspace>/MEMORY_SNAPSHOT.json as a JSON array, returning the count
// written. An empty list writes nothing and returns 0, per spec.md
// §4.12.
func Export(store Store, workspace string) (int, error) {
	entries := store.List(CategoryCore)
	if len(entries) == 0 {
		return 0, nil
	}

	out := make([]snapshotEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, snapshotEntry{Key: e.Key, Content: e.Content, Category: e.Category, Timestamp: e.Timestamp})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(snapshotPath(workspace), data, 0o644); err != nil {
		return 0, err
	}
	return len(out), nil
}

// Hydrate reads <workspace>/MEMORY_SNAPSHOT.json and stores each entry
// with both key and content present as non-empty strings, defaulting a
// missing or non-string category to `core`. Per-entry parse failures are
// skipped, not aborting the whole file; the session is always nil for a
// hydrated entry since a snapshot predates any live session. Returns the
// count hydrated.
func Hydrate(store Store, workspace string) (int, error) {
	data, err := os.ReadFile(snapshotPath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, err
	}

	hydrated := 0
	for _, obj := range raw {
		var key, content string
		if err := json.Unmarshal(obj["key"], &key); err != nil || key == "" {
			continue
		}
		if err := json.Unmarshal(obj["content"], &content); err != nil || content == "" {
			continue
		}
		category := CategoryCore
		if raw, ok := obj["category"]; ok {
			var c string
			if err := json.Unmarshal(raw, &c); err == nil && c != "" {
				category = c
			}
		}
		if err := store.Put(key, content, category, ""); err != nil {
			continue
		}
		hydrated++
	}
	return hydrated, nil
}

// ShouldHydrate reports whether a hydrate is warranted: the store is
// empty and a snapshot file exists, per spec.md §4.12.
func ShouldHydrate(store Store, workspace string) bool {
	if store.Count() != 0 {
		return false
	}
	_, err := os.Stat(snapshotPath(workspace))
	return err == nil
}
