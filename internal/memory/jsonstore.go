package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// JSONStore is a Store persisted as a single JSON file. Every mutation
// rewrites the file atomically (temp file plus rename). With an empty
// path the store is purely in-memory.
type JSONStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	path    string
	logger  *slog.Logger
}

// NewJSONStore opens the store at path, loading existing entries. A
// missing file is not an error; an empty path disables persistence.
func NewJSONStore(path string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &JSONStore{
		entries: make(map[string]*Entry),
		path:    path,
		logger:  logger,
	}

	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Info("memory store opened", "path", path, "entries", len(s.entries))
	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decoding store file %s: %w", s.path, err)
	}
	return nil
}

// persist writes the whole map out. Callers hold the write lock.
func (s *JSONStore) persist() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

// Save stores value under key, replacing any previous entry.
func (s *JSONStore) Save(ctx context.Context, key string, value map[string]any, tags []string, entryType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("memory: empty key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = &Entry{
		Key:        key,
		Value:      maps.Clone(value),
		Tags:       append([]string(nil), tags...),
		Type:       entryType,
		CreatedAt:  now,
		AccessedAt: now,
	}

	return s.persist()
}

// Get returns the entry for key and bumps its access counters. The
// counters are persisted with the next mutation, not on every read.
func (s *JSONStore) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	e.AccessCount++
	e.AccessedAt = time.Now()
	return copyEntry(e), nil
}

// Search returns entries matching q, newest first.
func (s *JSONStore) Search(ctx context.Context, q Query) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Entry
	for _, e := range s.entries {
		if matches(e, q) {
			results = append(results, copyEntry(e))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].Key < results[j].Key
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func matches(e *Entry, q Query) bool {
	if q.Type != "" && e.Type != q.Type {
		return false
	}
	for _, want := range q.Tags {
		found := false
		for _, tag := range e.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.ContentContains != "" {
		encoded, err := json.Marshal(e.Value)
		if err != nil {
			return false
		}
		if !strings.Contains(strings.ToLower(string(encoded)), strings.ToLower(q.ContentContains)) {
			return false
		}
	}
	return true
}

// Delete removes the entry for key.
func (s *JSONStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.entries, key)
	return s.persist()
}

// Stats summarizes the store: totals, per-type counts, and the five
// most accessed keys.
func (s *JSONStore) Stats(ctx context.Context) (StoreStats, error) {
	if err := ctx.Err(); err != nil {
		return StoreStats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		TotalEntries: len(s.entries),
		TypeCounts:   make(map[string]int),
	}

	type accessed struct {
		key   string
		count int
	}
	var byAccess []accessed
	for _, e := range s.entries {
		if e.Type != "" {
			stats.TypeCounts[e.Type]++
		}
		if e.AccessCount > 0 {
			byAccess = append(byAccess, accessed{e.Key, e.AccessCount})
		}
	}

	sort.Slice(byAccess, func(i, j int) bool {
		if byAccess[i].count == byAccess[j].count {
			return byAccess[i].key < byAccess[j].key
		}
		return byAccess[i].count > byAccess[j].count
	})
	for i := 0; i < len(byAccess) && i < 5; i++ {
		stats.MostAccessed = append(stats.MostAccessed, byAccess[i].key)
	}

	if s.path != "" {
		if fi, err := os.Stat(s.path); err == nil {
			stats.FileSizeBytes = fi.Size()
		}
	}
	return stats, nil
}

// Close persists any unflushed access counters.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

func copyEntry(e *Entry) *Entry {
	c := *e
	c.Value = maps.Clone(e.Value)
	c.Tags = append([]string(nil), e.Tags...)
	return &c
}
