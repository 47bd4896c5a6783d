// Package memory provides the persistence layer: a generic tagged
// key-value store backed by a JSON file, and a repair-specific layer on
// top of it that learns action success rates from recorded outcomes.
package memory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no entry.
var ErrNotFound = errors.New("memory: entry not found")

// Entry is one stored record with its bookkeeping.
type Entry struct {
	Key         string         `json:"key"`
	Value       map[string]any `json:"value"`
	Tags        []string       `json:"tags,omitempty"`
	Type        string         `json:"type,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	AccessedAt  time.Time      `json:"accessed_at"`
	AccessCount int            `json:"access_count"`
}

// Query filters a Search. All set fields must match: tags are ANDed,
// Type matches exactly, ContentContains is a case-insensitive substring
// match over the JSON-encoded value. Limit of zero means no limit.
type Query struct {
	Tags            []string
	Type            string
	ContentContains string
	Limit           int
}

// StoreStats summarizes store contents.
type StoreStats struct {
	TotalEntries  int            `json:"total_entries"`
	TypeCounts    map[string]int `json:"type_counts,omitempty"`
	MostAccessed  []string       `json:"most_accessed,omitempty"`
	FileSizeBytes int64          `json:"file_size_bytes,omitempty"`
}

// Store is the persistence contract the engine and the repair layer
// build on. Save overwrites unconditionally; Get reports ErrNotFound
// for unknown keys and bumps access counters.
type Store interface {
	Save(ctx context.Context, key string, value map[string]any, tags []string, entryType string) error
	Get(ctx context.Context, key string) (*Entry, error)
	Search(ctx context.Context, q Query) ([]*Entry, error)
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (StoreStats, error)
	Close() error
}
