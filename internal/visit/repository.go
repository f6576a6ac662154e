package visit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store defines read access to visit records for the ranking and
// recommendation pipelines. Writes happen in the content service, which is
// outside this module.
type Store interface {
	// ListActiveByUser returns all non-deleted records authored by a user,
	// in no particular order.
	ListActiveByUser(ctx context.Context, userID int64) ([]*Record, error)

	// ActiveAuthors returns the distinct user ids with at least one
	// non-deleted record.
	ActiveAuthors(ctx context.Context) ([]int64, error)

	// AuthorsSince returns the distinct user ids with at least one
	// non-deleted record created at or after the given time.
	AuthorsSince(ctx context.Context, since time.Time) ([]int64, error)
}

// InMemoryStore is an in-memory Store implementation for tests and local
// development. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64]*Record
	nextID  int64
}

// NewInMemoryStore creates an empty in-memory visit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[int64]*Record),
		nextID:  1,
	}
}

// Add inserts a record, assigning an id if unset. Returns the stored copy's id.
func (s *InMemoryStore) Add(r *Record) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *r
	if rec.ID == 0 {
		rec.ID = s.nextID
	}
	if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.records[rec.ID] = &rec
	return rec.ID
}

// SoftDelete marks a record deleted. Missing ids are ignored.
func (s *InMemoryStore) SoftDelete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.IsDeleted = true
		rec.UpdatedAt = time.Now()
	}
}

// ListActiveByUser returns all non-deleted records authored by a user.
func (s *InMemoryStore) ListActiveByUser(ctx context.Context, userID int64) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.records {
		if rec.UserID == userID && !rec.IsDeleted {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ActiveAuthors returns the distinct user ids with at least one non-deleted record.
func (s *InMemoryStore) ActiveAuthors(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, rec := range s.records {
		if !rec.IsDeleted {
			seen[rec.UserID] = struct{}{}
		}
	}
	return sortedIDs(seen), nil
}

// AuthorsSince returns the distinct user ids with at least one non-deleted
// record created at or after since.
func (s *InMemoryStore) AuthorsSince(ctx context.Context, since time.Time) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, rec := range s.records {
		if !rec.IsDeleted && !rec.CreatedAt.Before(since) {
			seen[rec.UserID] = struct{}{}
		}
	}
	return sortedIDs(seen), nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
