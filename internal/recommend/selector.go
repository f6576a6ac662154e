// Package recommend selects taste-similar users for recommendations and
// estimates how well a venue matches a viewer's taste from reviewer signals.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mimyapp/tasteranker/internal/cache"
	"github.com/mimyapp/tasteranker/internal/social"
	"github.com/mimyapp/tasteranker/internal/taste"
	"github.com/mimyapp/tasteranker/internal/visit"
)

// DefaultLimit caps a recommendation response when the caller does not ask
// for a specific size.
const DefaultLimit = 20

// DefaultRecencyWindow bounds the candidate pool to recently active authors.
const DefaultRecencyWindow = 30 * 24 * time.Hour

// DefaultCacheTTL is the memoization TTL for a user's recommendation list.
const DefaultCacheTTL = 5 * time.Minute

// Recommendation is one taste-similar user, annotated for display.
type Recommendation struct {
	UserID      int64   `json:"user_id"`
	Score       float64 `json:"score"`
	IsFollowing bool    `json:"is_following"`
	ClusterID   int     `json:"cluster_id,omitempty"`
	ClusterName string  `json:"cluster_name,omitempty"`
}

// SelectorConfig configures a Selector.
type SelectorConfig struct {
	// RecencyWindow bounds the candidate pool. Defaults to 30 days.
	RecencyWindow time.Duration
	// CacheTTL for memoized results. Defaults to 5 minutes.
	CacheTTL time.Duration
	// Cache memoizes results per (user, limit). Nil disables memoization.
	Cache *cache.Store
	// Logger for selector activity.
	Logger *slog.Logger
}

// Selector produces a ranked list of taste-similar users. Pure and read-only
// over its stores; safe for concurrent use.
type Selector struct {
	visits   visit.Store
	profiles taste.Store
	follows  social.FollowStore
	scorer   *taste.Scorer
	clusters *taste.ClusterTable
	config   SelectorConfig
}

// NewSelector creates a Selector. The cluster table may be nil, in which
// case recommendations carry no cluster display name.
func NewSelector(
	visits visit.Store,
	profiles taste.Store,
	follows social.FollowStore,
	scorer *taste.Scorer,
	clusters *taste.ClusterTable,
	config SelectorConfig,
) *Selector {
	if config.RecencyWindow <= 0 {
		config.RecencyWindow = DefaultRecencyWindow
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Selector{
		visits:   visits,
		profiles: profiles,
		follows:  follows,
		scorer:   scorer,
		clusters: clusters,
		config:   config,
	}
}

// Select returns up to limit users similar to the requester, ordered by
// similarity descending with user id as the stable tie-break. A requester
// without a taste profile gets an empty result, not an error.
func (s *Selector) Select(ctx context.Context, userID int64, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if s.config.Cache == nil {
		return s.compute(ctx, userID, limit)
	}

	key := fmt.Sprintf("recommend:user:%d:%d", userID, limit)
	var out []Recommendation
	err := s.config.Cache.GetOrSet(ctx, key, s.config.CacheTTL, &out, func(ctx context.Context) (any, error) {
		return s.compute(ctx, userID, limit)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Selector) compute(ctx context.Context, userID int64, limit int) ([]Recommendation, error) {
	requester, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load requester profile: %w", err)
	}
	if requester == nil {
		// Never completed the quiz: similarity is undefined for every pair.
		return []Recommendation{}, nil
	}

	since := time.Now().Add(-s.config.RecencyWindow)
	authors, err := s.visits.AuthorsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	candidates := make([]int64, 0, len(authors))
	for _, id := range authors {
		if id != userID {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return []Recommendation{}, nil
	}

	profiles, err := s.profiles.GetProfiles(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("load candidate profiles: %w", err)
	}

	scored := make([]Recommendation, 0, len(profiles))
	for id, p := range profiles {
		score, ok := s.scorer.ScoreProfiles(requester, p)
		if !ok || score == 0 {
			continue
		}
		scored = append(scored, Recommendation{
			UserID:    id,
			Score:     score,
			ClusterID: p.ClusterID,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].UserID < scored[j].UserID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	if err := s.annotate(ctx, userID, scored); err != nil {
		return nil, err
	}
	return scored, nil
}

// annotate fills in follow state and cluster display names for the final
// selection only.
func (s *Selector) annotate(ctx context.Context, userID int64, recs []Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.UserID
	}
	followed, err := s.follows.FollowingSet(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("load follow state: %w", err)
	}

	for i := range recs {
		_, recs[i].IsFollowing = followed[recs[i].UserID]
		if s.clusters != nil {
			if meta, ok := s.clusters.Metadata(recs[i].ClusterID); ok {
				recs[i].ClusterName = meta.Name
			}
		}
	}
	return nil
}
