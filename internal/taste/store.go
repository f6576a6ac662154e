package taste

import (
	"context"
	"sync"
	"time"
)

// Store persists taste profiles.
type Store interface {
	// GetProfile returns a user's profile, or nil with no error when the
	// user never completed the quiz.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// GetProfiles returns the profiles of the given users, keyed by user id.
	// Users without a profile are simply absent from the result.
	GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*Profile, error)

	// SaveProfile inserts or replaces a user's profile.
	SaveProfile(ctx context.Context, profile *Profile) error
}

// InMemoryStore is an in-memory Store implementation for tests and local
// development. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]*Profile
}

// NewInMemoryStore creates an empty in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[int64]*Profile),
	}
}

// GetProfile returns a copy of the stored profile, or nil when absent.
func (s *InMemoryStore) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// GetProfiles returns copies of the stored profiles for the given users.
func (s *InMemoryStore) GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]*Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

// SaveProfile inserts or replaces a user's profile.
func (s *InMemoryStore) SaveProfile(ctx context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	if cp.Version == 0 {
		cp.Version = ProfileVersion
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	s.profiles[cp.UserID] = &cp
	return nil
}
