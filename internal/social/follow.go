// Package social provides the follow-graph read model used to annotate
// recommendations.
package social

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lib/pq"
)

// FollowStore answers follow-relationship queries.
type FollowStore interface {
	// IsFollowing reports whether follower follows target.
	IsFollowing(ctx context.Context, followerID, targetID int64) (bool, error)

	// FollowingSet returns, out of the given candidate ids, the subset the
	// follower currently follows.
	FollowingSet(ctx context.Context, followerID int64, candidateIDs []int64) (map[int64]struct{}, error)
}

// InMemoryFollowStore is an in-memory FollowStore for tests and local
// development. Thread-safe via RWMutex.
type InMemoryFollowStore struct {
	mu      sync.RWMutex
	follows map[int64]map[int64]struct{} // follower -> targets
}

// NewInMemoryFollowStore creates an empty in-memory follow store.
func NewInMemoryFollowStore() *InMemoryFollowStore {
	return &InMemoryFollowStore{
		follows: make(map[int64]map[int64]struct{}),
	}
}

// Follow records a follow edge.
func (s *InMemoryFollowStore) Follow(followerID, targetID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.follows[followerID] == nil {
		s.follows[followerID] = make(map[int64]struct{})
	}
	s.follows[followerID][targetID] = struct{}{}
}

// Unfollow removes a follow edge. Missing edges are ignored.
func (s *InMemoryFollowStore) Unfollow(followerID, targetID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows[followerID], targetID)
}

// IsFollowing reports whether follower follows target.
func (s *InMemoryFollowStore) IsFollowing(ctx context.Context, followerID, targetID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followerID][targetID]
	return ok, nil
}

// FollowingSet returns the followed subset of the candidates.
func (s *InMemoryFollowStore) FollowingSet(ctx context.Context, followerID int64, candidateIDs []int64) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]struct{})
	targets := s.follows[followerID]
	for _, id := range candidateIDs {
		if _, ok := targets[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// PostgresFollowStore implements FollowStore using PostgreSQL.
type PostgresFollowStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresFollowStore creates a new Postgres-backed follow store.
func NewPostgresFollowStore(db *sql.DB, logger *slog.Logger) *PostgresFollowStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFollowStore{
		db:     db,
		logger: logger,
	}
}

// IsFollowing reports whether follower follows target.
func (s *PostgresFollowStore) IsFollowing(ctx context.Context, followerID, targetID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_id = $1 AND following_id = $2
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, followerID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check follow %d -> %d: %w", followerID, targetID, err)
	}
	return exists, nil
}

// FollowingSet returns the followed subset of the candidates.
func (s *PostgresFollowStore) FollowingSet(ctx context.Context, followerID int64, candidateIDs []int64) (map[int64]struct{}, error) {
	if len(candidateIDs) == 0 {
		return map[int64]struct{}{}, nil
	}

	query := `
		SELECT following_id FROM follows
		WHERE follower_id = $1 AND following_id = ANY($2)
	`
	rows, err := s.db.QueryContext(ctx, query, followerID, pq.Array(candidateIDs))
	if err != nil {
		return nil, fmt.Errorf("query following set for user %d: %w", followerID, err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan following id: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate following ids: %w", err)
	}
	return out, nil
}
