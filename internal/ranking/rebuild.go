package ranking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mimyapp/tasteranker/internal/visit"
)

// RebuilderConfig configures a Rebuilder.
type RebuilderConfig struct {
	// Policy selects the rank numbering scheme. Defaults to PolicyGlobal.
	Policy Policy
	// Logger for rebuild activity.
	Logger *slog.Logger
}

// Rebuilder recomputes one user's rank list from their visit records.
type Rebuilder struct {
	visits visit.Store
	ranks  Store
	policy Policy
	logger *slog.Logger
}

// NewRebuilder creates a Rebuilder over the given stores.
func NewRebuilder(visits visit.Store, ranks Store, config RebuilderConfig) *Rebuilder {
	policy := config.Policy
	if policy == "" {
		policy = PolicyGlobal
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Rebuilder{
		visits: visits,
		ranks:  ranks,
		policy: policy,
		logger: logger,
	}
}

// Policy returns the numbering policy this rebuilder was constructed with.
func (r *Rebuilder) Policy() Policy {
	return r.policy
}

// RebuildUser recomputes and atomically persists the user's full rank list,
// returning the number of entries written. A user with zero eligible
// candidates ends up with an empty persisted list, not a stale one.
//
// The rebuild is idempotent: rerunning it on an unchanged visit set writes
// an identical list.
func (r *Rebuilder) RebuildUser(ctx context.Context, userID int64) (int, error) {
	records, err := r.visits.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load visits for user %d: %w", userID, err)
	}

	candidates := ProjectVisits(records)
	entries := BuildEntries(userID, candidates, r.policy)

	// A failure here is a rank-assignment bug, not bad data; surface it loudly.
	if err := ValidateEntries(entries, r.policy); err != nil {
		return 0, fmt.Errorf("rank invariant violated for user %d: %w", userID, err)
	}

	if err := r.ranks.ReplaceUserRanking(ctx, userID, entries); err != nil {
		return 0, fmt.Errorf("persist rank list for user %d: %w", userID, err)
	}

	r.logger.Debug("rank list rebuilt",
		"user_id", userID,
		"entries", len(entries),
		"policy", string(r.policy))
	return len(entries), nil
}
