// Package memory adapts the daemon's memory boundary: an Export/Hydrate
// snapshot of the `core` category (spec.md §4.12) over a vector-backed
// Store. The store's hybrid keyword+vector recall internals are out of
// scope per spec.md §1 ("memory-backend internals... out of scope");
// Store is the thin adapter seam over github.com/philippgille/chromem-go.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/nullclaw/nullclaw/internal/logger"
	"github.com/nullclaw/nullclaw/internal/providers"
)

// Category matches spec.md §3's MemoryEntry.category variants; Custom
// categories are represented by any string not equal to one of the
// three fixed ones.
const (
	CategoryCore         = "core"
	CategoryDaily         = "daily"
	CategoryConversation = "conversation"
)

// Entry mirrors spec.md §3's MemoryEntry, restricted to the fields the
// snapshot boundary (§4.12) reads and writes.
type Entry struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
	SessionID string `json:"session_id,omitempty"`
}

// Store is the adapter seam Export/Hydrate operate over: enough surface
// to list one category and to persist a new entry. A real daemon wires
// *VectorStore; tests use an in-memory fake.
type Store interface {
	List(category string) []Entry
	Put(key, content, category, sessionID string) error
	Count() int
}

// VectorStore is a chromem-go-backed Store: one collection, each
// MemoryEntry stored as a Document keyed by its key with
// category/timestamp/session as metadata, embedding computation
// supplied by embeddingFn (left to the caller per spec.md §1 —
// embedding computation itself is out of scope).
type VectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorStore opens (creating if absent) a persistent chromem-go
// database at <workspace>/memory/vectors.
func NewVectorStore(workspace string, embeddingFn chromem.EmbeddingFunc) (*VectorStore, error) {
	dbPath := filepath.Join(workspace, "memory", "vectors")
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	collection, err := db.GetOrCreateCollection("memory", nil, embeddingFn)
	if err != nil {
		return nil, fmt.Errorf("create memory collection: %w", err)
	}

	logger.InfoCF("memory", "vector store initialized", logger.Fields{
		"path":  dbPath,
		"count": collection.Count(),
	})

	return &VectorStore{db: db, collection: collection}, nil
}

// Put stores an entry, assigning a fresh id when category requires one
// for uniqueness (key collisions overwrite, matching chromem-go's
// upsert-by-ID AddDocument behavior).
func (vs *VectorStore) Put(key, content, category, sessionID string) error {
	doc := chromem.Document{
		ID:      key,
		Content: content,
		Metadata: map[string]string{
			"key":        key,
			"category":   category,
			"session_id": sessionID,
			"timestamp":  fmt.Sprintf("%d", time.Now().Unix()),
			"entry_id":   uuid.NewString(),
		},
	}
	return vs.collection.AddDocument(context.Background(), doc)
}

// List returns every entry whose category metadata equals category.
// chromem-go has no direct "list all" API scoped by metadata alone
// without a query vector, so this issues a broad query and filters by
// the Where clause chromem-go does support directly on metadata.
func (vs *VectorStore) List(category string) []Entry {
	if vs.collection.Count() == 0 {
		return nil
	}
	docs, err := vs.collection.Query(context.Background(), "", vs.collection.Count(), map[string]string{"category": category}, nil)
	if err != nil {
		logger.WarnCF("memory", "list query failed", logger.Fields{"category": category, "error": err.Error()})
		return nil
	}
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		var ts int64
		fmt.Sscanf(d.Metadata["timestamp"], "%d", &ts)
		entries = append(entries, Entry{
			ID:        d.Metadata["entry_id"],
			Key:       d.Metadata["key"],
			Content:   d.Content,
			Category:  d.Metadata["category"],
			Timestamp: ts,
			SessionID: d.Metadata["session_id"],
		})
	}
	return entries
}

// Count returns the total number of stored entries across all
// categories, used by ShouldHydrate (spec.md §4.12).
func (vs *VectorStore) Count() int {
	return vs.collection.Count()
}

// ResolveEmbeddingFunc picks an embedding backend from whatever provider
// credential is already available: a direct OpenAI key first, an
// OpenRouter key (OpenAI-compatible, with the "openai/" model prefix
// OpenRouter requires) second. Returns nil if neither credential is
// available; callers must treat a nil EmbeddingFunc as "memory disabled"
// since embedding computation itself is out of scope (spec.md §1).
func ResolveEmbeddingFunc(model string) chromem.EmbeddingFunc {
	if model == "" {
		model = "text-embedding-3-small"
	}

	if key := providers.ResolveAPIKey("openai", ""); key != "" {
		return chromem.NewEmbeddingFuncOpenAI(key, chromem.EmbeddingModelOpenAI(model))
	}

	if key := providers.ResolveAPIKey("openrouter", ""); key != "" {
		orModel := model
		if len(orModel) > 0 && !containsSlash(orModel) {
			orModel = "openai/" + orModel
		}
		return chromem.NewEmbeddingFuncOpenAICompat("https://openrouter.ai/api/v1", key, orModel, nil)
	}

	return nil
}

func containsSlash(s string) bool {
	for _, r := range s {
		if r == '/' {
			return true
		}
	}
	return false
}
