package journal

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Entries do not survive process restarts; it is intended for tests and
// short-lived tooling.
type MemoryStorage struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory journal backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*Entry),
	}
}

// Store persists a journal entry to memory.
func (s *MemoryStorage) Store(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	s.entries[entry.TraceID] = &entryCopy
	return nil
}

// Query retrieves entries matching the filters, newest first.
func (s *MemoryStorage) Query(ctx context.Context, query *Query) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Entry
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartTime.After(results[j].StartTime)
	})

	start := query.Offset
	if start > len(results) {
		return []*Entry{}, nil
	}

	limit := query.Limit
	if limit == 0 {
		limit = 100
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}

	return results[start:end], nil
}

// Count returns the number of entries matching the filters.
func (s *MemoryStorage) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes entries matching the filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if matchesQuery(entry, query) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases the stored entries.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	return nil
}

// Size returns the number of stored entries (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// matchesQuery checks if an entry matches the query filters.
func matchesQuery(entry *Entry, query *Query) bool {
	if query.StartTime != nil && entry.StartTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && entry.StartTime.After(*query.EndTime) {
		return false
	}
	if query.OperationName != "" && entry.OperationName != query.OperationName {
		return false
	}
	if query.WithErrors && entry.ErrorCount == 0 {
		return false
	}
	return true
}
