package leaderboard

import (
	"fmt"
	"testing"
)

func TestStats_Score(t *testing.T) {
	tests := []struct {
		stats Stats
		want  int
	}{
		{Stats{}, 0},
		{Stats{ContentCount: 1}, 5},
		{Stats{ReceivedLikes: 1}, 3},
		{Stats{ContentCount: 10, ReceivedLikes: 4}, 62},
	}
	for _, tt := range tests {
		if got := tt.stats.Score(); got != tt.want {
			t.Errorf("Score(%+v) = %d, want %d", tt.stats, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	for _, valid := range []string{"OVERALL", "AFFILIATION", "NEIGHBORHOOD"} {
		if _, err := ParseScope(valid); err != nil {
			t.Errorf("ParseScope(%q) error = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "overall", "COMPANY"} {
		if _, err := ParseScope(invalid); err == nil {
			t.Errorf("ParseScope(%q) expected error", invalid)
		}
	}
}

func TestBuildListing(t *testing.T) {
	users := []UserStats{
		{UserID: 1, ContentCount: 2},                    // score 10
		{UserID: 2, ContentCount: 10, ReceivedLikes: 5}, // score 65
		{UserID: 3, ContentCount: 2},                    // score 10, ties with 1
		{UserID: 4},                                     // score 0
	}

	entries := buildListing(ScopeOverall, "", users)
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	wantOrder := []int64{2, 1, 3, 4}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Errorf("position %d = user %d, want %d", i, entries[i].UserID, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d rank = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
	if entries[0].Score != 65 {
		t.Errorf("top score = %d, want 65", entries[0].Score)
	}
}

func TestBuildListing_TruncatesToMaxEntries(t *testing.T) {
	users := make([]UserStats, MaxEntries+50)
	for i := range users {
		users[i] = UserStats{UserID: int64(i + 1), ContentCount: i}
	}

	entries := buildListing(ScopeOverall, "", users)
	if len(entries) != MaxEntries {
		t.Fatalf("got %d entries, want %d", len(entries), MaxEntries)
	}
	if entries[0].Rank != 1 || entries[len(entries)-1].Rank != MaxEntries {
		t.Errorf("ranks run %d..%d, want 1..%d", entries[0].Rank, entries[len(entries)-1].Rank, MaxEntries)
	}
	// Highest scorer survived the cut.
	if entries[0].UserID != int64(len(users)) {
		t.Errorf("top entry = user %d, want %d", entries[0].UserID, len(users))
	}
}

func TestBuildAll(t *testing.T) {
	users := []UserStats{
		{UserID: 1, ContentCount: 5, Affiliation: "acme", Neighborhood: "north"},
		{UserID: 2, ContentCount: 3, Affiliation: "acme"},
		{UserID: 3, ContentCount: 9, Neighborhood: "north"},
		{UserID: 4, ContentCount: 1},
	}

	entries := buildAll(users)

	counts := make(map[string]int)
	for _, e := range entries {
		counts[fmt.Sprintf("%s/%s", e.Scope, e.ScopeKey)]++
	}

	want := map[string]int{
		"OVERALL/":           4,
		"AFFILIATION/acme":   2,
		"NEIGHBORHOOD/north": 2,
	}
	for key, n := range want {
		if counts[key] != n {
			t.Errorf("listing %s has %d entries, want %d", key, counts[key], n)
		}
	}
	if len(entries) != 8 {
		t.Errorf("total entries = %d, want 8", len(entries))
	}
}

func TestBuildAll_Deterministic(t *testing.T) {
	users := []UserStats{
		{UserID: 3, ContentCount: 1, Affiliation: "b"},
		{UserID: 1, ContentCount: 1, Affiliation: "a"},
		{UserID: 2, ContentCount: 1, Affiliation: "a"},
	}

	first := buildAll(users)
	for run := 0; run < 5; run++ {
		again := buildAll(users)
		if len(again) != len(first) {
			t.Fatalf("entry count changed: %d vs %d", len(again), len(first))
		}
		for i := range first {
			if first[i] != again[i] {
				t.Errorf("entry %d changed across runs: %+v vs %+v", i, first[i], again[i])
			}
		}
	}
}
