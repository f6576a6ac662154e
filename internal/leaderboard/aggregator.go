package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mimyapp/tasteranker/internal/cache"
)

// Pagination bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// DefaultTTL bounds cached listing staleness.
const DefaultTTL = time.Hour

// cacheKeyPattern matches every leaderboard cache key for invalidation.
const cacheKeyPattern = "leaderboard:*"

// JobTypeLeaderboardRefresh labels the refresh in the centralized job
// metrics.
const JobTypeLeaderboardRefresh = "leaderboard_refresh"

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// TTL bounds cached listing staleness. Defaults to one hour.
	TTL time.Duration
	// Logger for aggregator activity.
	Logger *slog.Logger
	// JobMetrics for refresh tracking.
	JobMetrics JobMetrics
}

// Aggregator serves scoped leaderboard listings through a TTL cache and
// rebuilds them from activity stats on Refresh.
type Aggregator struct {
	stats  StatsSource
	store  Store
	cache  *cache.Store
	config AggregatorConfig
}

// NewAggregator creates an Aggregator. A nil cache store disables caching;
// reads then always hit the persisted entries.
func NewAggregator(stats StatsSource, store Store, cacheStore *cache.Store, config AggregatorConfig) *Aggregator {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Aggregator{
		stats:  stats,
		store:  store,
		cache:  cacheStore,
		config: config,
	}
}

// Get returns one page of a scoped listing ordered by rank ascending.
// Cache-aside: concurrent misses for the same key collapse to one store
// query; staleness up to the TTL is accepted.
func (a *Aggregator) Get(ctx context.Context, scope Scope, key string, page, limit int) ([]Entry, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := (page - 1) * limit

	if a.cache == nil {
		return a.store.List(ctx, scope, key, offset, limit)
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s:%d:%d", scope, key, page, limit)
	var out []Entry
	err := a.cache.GetOrSet(ctx, cacheKey, a.config.TTL, &out, func(ctx context.Context) (any, error) {
		return a.store.List(ctx, scope, key, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListScopeKeys returns the distinct non-empty keys for a scope,
// cache-backed like the listings themselves.
func (a *Aggregator) ListScopeKeys(ctx context.Context, scope Scope) ([]string, error) {
	if a.cache == nil {
		return a.store.ScopeKeys(ctx, scope)
	}

	cacheKey := fmt.Sprintf("leaderboard:keys:%s", scope)
	var out []string
	err := a.cache.GetOrSet(ctx, cacheKey, a.config.TTL, &out, func(ctx context.Context) (any, error) {
		return a.store.ScopeKeys(ctx, scope)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh recomputes every scoped listing from current activity stats,
// replaces the persisted entries in one transaction, and invalidates the
// cache so readers pick up the new listings immediately. Idempotent and
// safe to re-run at any time.
func (a *Aggregator) Refresh(ctx context.Context) error {
	start := time.Now()

	err := a.refresh(ctx)

	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "failure"
		if a.config.JobMetrics != nil {
			a.config.JobMetrics.IncJobErrors(JobTypeLeaderboardRefresh, "refresh_error")
		}
	}
	if a.config.JobMetrics != nil {
		a.config.JobMetrics.IncJobsTotal(JobTypeLeaderboardRefresh, status)
		a.config.JobMetrics.ObserveJobDuration(JobTypeLeaderboardRefresh, duration)
	}
	return err
}

func (a *Aggregator) refresh(ctx context.Context) error {
	users, err := a.stats.AllUserStats(ctx)
	if err != nil {
		return fmt.Errorf("load user stats: %w", err)
	}

	entries := buildAll(users)
	if err := a.store.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("replace leaderboard entries: %w", err)
	}

	if a.cache != nil {
		deleted, err := a.cache.InvalidatePattern(ctx, cacheKeyPattern)
		if err != nil {
			// Stale cache entries age out within the TTL; not worth failing
			// the refresh over.
			a.config.Logger.Warn("failed to invalidate leaderboard cache",
				"error", err)
		} else {
			a.config.Logger.Debug("leaderboard cache invalidated", "keys", deleted)
		}
	}

	a.config.Logger.Info("leaderboard refreshed",
		"users", len(users),
		"entries", len(entries))
	return nil
}
