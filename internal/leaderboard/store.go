package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// StatsSource provides the per-user activity aggregates the refresh scores.
type StatsSource interface {
	// AllUserStats returns one row per user with content and like counts
	// plus scope keys.
	AllUserStats(ctx context.Context) ([]UserStats, error)
}

// Store persists computed leaderboard entries.
type Store interface {
	// ReplaceAll atomically replaces every persisted entry with the given
	// set. Readers observe either the old listings or the new ones.
	ReplaceAll(ctx context.Context, entries []Entry) error

	// List returns a page of one scoped listing ordered by rank ascending.
	List(ctx context.Context, scope Scope, key string, offset, limit int) ([]Entry, error)

	// ScopeKeys returns the distinct non-empty keys present for a scope.
	ScopeKeys(ctx context.Context, scope Scope) ([]string, error)
}

// InMemoryStore is an in-memory Store implementation for tests and local
// development. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryStore creates an empty in-memory leaderboard store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// ReplaceAll atomically replaces every persisted entry.
func (s *InMemoryStore) ReplaceAll(ctx context.Context, entries []Entry) error {
	cp := make([]Entry, len(entries))
	copy(cp, entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = cp
	return nil
}

// List returns a page of one scoped listing ordered by rank ascending.
func (s *InMemoryStore) List(ctx context.Context, scope Scope, key string, offset, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.Scope == scope && e.ScopeKey == key {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Rank < matched[j].Rank })

	if offset >= len(matched) {
		return []Entry{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Entry, len(matched))
	copy(out, matched)
	return out, nil
}

// ScopeKeys returns the distinct non-empty keys present for a scope.
func (s *InMemoryStore) ScopeKeys(ctx context.Context, scope Scope) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.entries {
		if e.Scope == scope && e.ScopeKey != "" {
			seen[e.ScopeKey] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
