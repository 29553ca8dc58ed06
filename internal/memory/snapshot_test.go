package memory

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeStore struct {
	entries []Entry
	puts    []Entry
}

func (f *fakeStore) List(category string) []Entry {
	var out []Entry
	for _, e := range f.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeStore) Put(key, content, category, sessionID string) error {
	f.puts = append(f.puts, Entry{Key: key, Content: content, Category: category, SessionID: sessionID})
	f.entries = append(f.entries, Entry{Key: key, Content: content, Category: category, SessionID: sessionID})
	return nil
}

func (f *fakeStore) Count() int { return len(f.entries) }

func TestExport_WritesCoreEntriesOnly(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{entries: []Entry{
		{Key: "a", Content: "fact a", Category: CategoryCore, Timestamp: 1},
		{Key: "b", Content: "chat turn", Category: CategoryConversation, Timestamp: 2},
		{Key: "c", Content: "fact c", Category: CategoryCore, Timestamp: 3},
	}}

	n, err := Export(store, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Fatalf("Export count = %d, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(dir, SnapshotFileName)); err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
}

func TestExport_EmptyListWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}

	n, err := Export(store, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 0 {
		t.Fatalf("Export count = %d, want 0", n)
	}
	if _, err := os.Stat(filepath.Join(dir, SnapshotFileName)); !os.IsNotExist(err) {
		t.Fatalf("snapshot file should not exist, stat err = %v", err)
	}
}

func TestHydrate_MissingFileReturnsZero(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	n, err := Hydrate(store, dir)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if n != 0 {
		t.Fatalf("Hydrate count = %d, want 0", n)
	}
}

func TestHydrate_SkipsInvalidEntriesButKeepsValid(t *testing.T) {
	dir := t.TempDir()
	body := `[
		{"key":"a","content":"fact a","category":"core","timestamp":1},
		{"content":"missing key"},
		{"key":"","content":"empty key"},
		{"key":"b","content":""},
		{"key":"c","content":"fact c"}
	]`
	if err := os.WriteFile(filepath.Join(dir, SnapshotFileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{}
	n, err := Hydrate(store, dir)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if n != 2 {
		t.Fatalf("Hydrate count = %d, want 2", n)
	}
	if store.puts[1].Category != CategoryCore {
		t.Errorf("entry missing category defaulted to %q, want core", store.puts[1].Category)
	}
}

func TestHydrate_MalformedTopLevelJSONErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SnapshotFileName), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{}
	if _, err := Hydrate(store, dir); err == nil {
		t.Fatal("Hydrate with malformed top-level JSON: want error, got nil")
	}
}

func TestShouldHydrate_TrueOnlyWhenEmptyAndSnapshotExists(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}

	if ShouldHydrate(store, dir) {
		t.Error("ShouldHydrate = true with no snapshot file, want false")
	}

	if err := os.WriteFile(filepath.Join(dir, SnapshotFileName), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !ShouldHydrate(store, dir) {
		t.Error("ShouldHydrate = false with empty store and snapshot present, want true")
	}

	store.entries = append(store.entries, Entry{Key: "x", Content: "y", Category: CategoryCore})
	if ShouldHydrate(store, dir) {
		t.Error("ShouldHydrate = true with non-empty store, want false")
	}
}
