package leaderboard

import (
	"context"
	"errors"
	"testing"
)

// stubStatsSource returns a fixed stats set.
type stubStatsSource struct {
	users []UserStats
	err   error
}

func (s *stubStatsSource) AllUserStats(ctx context.Context) ([]UserStats, error) {
	return s.users, s.err
}

func TestAggregator_RefreshAndGet(t *testing.T) {
	stats := &stubStatsSource{users: []UserStats{
		{UserID: 1, ContentCount: 10, Affiliation: "acme"},
		{UserID: 2, ContentCount: 5, Affiliation: "acme"},
		{UserID: 3, ContentCount: 20},
	}}
	store := NewInMemoryStore()
	agg := NewAggregator(stats, store, nil, AggregatorConfig{})
	ctx := context.Background()

	if err := agg.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	overall, err := agg.Get(ctx, ScopeOverall, "", 1, 10)
	if err != nil {
		t.Fatalf("Get(overall) error = %v", err)
	}
	if len(overall) != 3 {
		t.Fatalf("overall has %d entries, want 3", len(overall))
	}
	if overall[0].UserID != 3 || overall[0].Rank != 1 {
		t.Errorf("top entry = %+v, want user 3 at rank 1", overall[0])
	}

	acme, err := agg.Get(ctx, ScopeAffiliation, "acme", 1, 10)
	if err != nil {
		t.Fatalf("Get(acme) error = %v", err)
	}
	if len(acme) != 2 {
		t.Fatalf("acme listing has %d entries, want 2", len(acme))
	}
	// Scoped ranks restart at 1.
	if acme[0].UserID != 1 || acme[0].Rank != 1 {
		t.Errorf("acme top = %+v, want user 1 at rank 1", acme[0])
	}
}

func TestAggregator_GetPagination(t *testing.T) {
	users := make([]UserStats, 10)
	for i := range users {
		users[i] = UserStats{UserID: int64(i + 1), ContentCount: 10 - i}
	}
	store := NewInMemoryStore()
	agg := NewAggregator(&stubStatsSource{users: users}, store, nil, AggregatorConfig{})
	ctx := context.Background()

	if err := agg.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	page2, err := agg.Get(ctx, ScopeOverall, "", 2, 3)
	if err != nil {
		t.Fatalf("Get(page 2) error = %v", err)
	}
	if len(page2) != 3 {
		t.Fatalf("page 2 has %d entries, want 3", len(page2))
	}
	if page2[0].Rank != 4 {
		t.Errorf("page 2 starts at rank %d, want 4", page2[0].Rank)
	}

	// Out-of-range page is empty, not an error.
	beyond, err := agg.Get(ctx, ScopeOverall, "", 99, 10)
	if err != nil {
		t.Fatalf("Get(page 99) error = %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("page 99 has %d entries, want 0", len(beyond))
	}
}

func TestAggregator_ListScopeKeys(t *testing.T) {
	stats := &stubStatsSource{users: []UserStats{
		{UserID: 1, Affiliation: "zeta", Neighborhood: "north"},
		{UserID: 2, Affiliation: "acme"},
		{UserID: 3, Affiliation: "acme"},
	}}
	store := NewInMemoryStore()
	agg := NewAggregator(stats, store, nil, AggregatorConfig{})
	ctx := context.Background()

	if err := agg.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	keys, err := agg.ListScopeKeys(ctx, ScopeAffiliation)
	if err != nil {
		t.Fatalf("ListScopeKeys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "acme" || keys[1] != "zeta" {
		t.Errorf("affiliation keys = %v, want [acme zeta]", keys)
	}

	hoods, err := agg.ListScopeKeys(ctx, ScopeNeighborhood)
	if err != nil {
		t.Fatalf("ListScopeKeys() error = %v", err)
	}
	if len(hoods) != 1 || hoods[0] != "north" {
		t.Errorf("neighborhood keys = %v, want [north]", hoods)
	}
}

func TestAggregator_RefreshIdempotent(t *testing.T) {
	stats := &stubStatsSource{users: []UserStats{
		{UserID: 1, ContentCount: 3},
		{UserID: 2, ContentCount: 7},
	}}
	store := NewInMemoryStore()
	agg := NewAggregator(stats, store, nil, AggregatorConfig{})
	ctx := context.Background()

	if err := agg.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	first, _ := agg.Get(ctx, ScopeOverall, "", 1, 10)

	if err := agg.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	second, _ := agg.Get(ctx, ScopeOverall, "", 1, 10)

	if len(first) != len(second) {
		t.Fatalf("entry count changed across refreshes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d changed across refreshes: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAggregator_RefreshPropagatesStatsError(t *testing.T) {
	stats := &stubStatsSource{err: errors.New("db down")}
	agg := NewAggregator(stats, NewInMemoryStore(), nil, AggregatorConfig{})

	if err := agg.Refresh(context.Background()); err == nil {
		t.Error("expected refresh error when stats source fails")
	}
}
