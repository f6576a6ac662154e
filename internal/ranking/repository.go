package ranking

import (
	"context"
	"sort"
	"sync"
)

// Entry is one persisted row of a user's ranking list. The full set for a
// user is owned by the rebuild pipeline and replaced as a unit; entries are
// never mutated field-by-field.
type Entry struct {
	UserID  int64 `json:"user_id"`
	VenueID int64 `json:"venue_id"`
	Tier    Tier  `json:"tier"`
	Rank    int   `json:"rank"`
}

// Signal is the reviewer-side view of one rank entry, used when estimating
// how well a venue matches a viewer's taste: where the reviewer placed the
// venue, out of how many, and at which satisfaction tier.
type Signal struct {
	UserID int64
	Rank   int
	Total  int
	Tier   Tier
}

// Store persists per-user rank lists.
type Store interface {
	// ReplaceUserRanking atomically replaces the user's entire rank list.
	// Passing an empty set deletes the prior list outright. Readers observe
	// either the old complete set or the new complete set, never a mix.
	ReplaceUserRanking(ctx context.Context, userID int64, entries []Entry) error

	// ListUserRanking returns the user's persisted entries ordered by tier
	// descending then rank ascending (the profile display order).
	ListUserRanking(ctx context.Context, userID int64) ([]Entry, error)

	// ListUsers returns the distinct user ids that currently have entries.
	ListUsers(ctx context.Context) ([]int64, error)

	// VenueSignals returns, for every user who ranked the venue, their entry
	// together with the size of their full rank list.
	VenueSignals(ctx context.Context, venueID int64) ([]Signal, error)
}

// InMemoryStore is an in-memory Store implementation for tests and local
// development. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[int64][]Entry // userID -> rank list
}

// NewInMemoryStore creates an empty in-memory rank store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[int64][]Entry),
	}
}

// ReplaceUserRanking atomically replaces the user's entire rank list.
func (s *InMemoryStore) ReplaceUserRanking(ctx context.Context, userID int64, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		delete(s.entries, userID)
		return nil
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	s.entries[userID] = cp
	return nil
}

// ListUserRanking returns the user's entries ordered by tier desc, rank asc.
func (s *InMemoryStore) ListUserRanking(ctx context.Context, userID int64) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[userID]
	out := make([]Entry, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier > out[j].Tier
		}
		return out[i].Rank < out[j].Rank
	})
	return out, nil
}

// ListUsers returns the distinct user ids that currently have entries.
func (s *InMemoryStore) ListUsers(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// VenueSignals returns the reviewer signals for one venue.
func (s *InMemoryStore) VenueSignals(ctx context.Context, venueID int64) ([]Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var signals []Signal
	for userID, list := range s.entries {
		for _, e := range list {
			if e.VenueID == venueID {
				signals = append(signals, Signal{
					UserID: userID,
					Rank:   e.Rank,
					Total:  len(list),
					Tier:   e.Tier,
				})
			}
		}
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].UserID < signals[j].UserID })
	return signals, nil
}
