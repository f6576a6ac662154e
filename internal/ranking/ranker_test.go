package ranking

import (
	"testing"
)

func candidateSet(cands ...Candidate) map[int64]Candidate {
	m := make(map[int64]Candidate, len(cands))
	for _, c := range cands {
		m[c.VenueID] = c
	}
	return m
}

func TestBuildEntries_GlobalNumbering(t *testing.T) {
	// Three venues across three tiers: the single best entry overall holds
	// rank 1 and numbering runs 1..N without reset.
	candidates := candidateSet(
		Candidate{VenueID: 100, Label: LabelGood, EffectiveDate: day(2)}, // X
		Candidate{VenueID: 200, Label: LabelBest, EffectiveDate: day(1)}, // Y
		Candidate{VenueID: 300, Label: LabelOK, EffectiveDate: day(3)},   // Z
	)

	entries := BuildEntries(10, candidates, PolicyGlobal)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	want := []struct {
		venueID int64
		tier    Tier
		rank    int
	}{
		{200, TierBest, 1},
		{100, TierGood, 2},
		{300, TierOK, 3},
	}
	for i, w := range want {
		e := entries[i]
		if e.VenueID != w.venueID || e.Tier != w.tier || e.Rank != w.rank {
			t.Errorf("entry %d = {venue %d, tier %v, rank %d}, want {venue %d, tier %v, rank %d}",
				i, e.VenueID, e.Tier, e.Rank, w.venueID, w.tier, w.rank)
		}
		if e.UserID != 10 {
			t.Errorf("entry %d user id = %d, want 10", i, e.UserID)
		}
	}
}

func TestBuildEntries_TierBeatsRecency(t *testing.T) {
	// Z has the most recent visit but sits in a lower tier; the two best-tier
	// venues order between themselves by date.
	candidates := candidateSet(
		Candidate{VenueID: 1, Label: LabelBest, EffectiveDate: day(10)}, // X
		Candidate{VenueID: 2, Label: LabelBest, EffectiveDate: day(12)}, // Y
		Candidate{VenueID: 3, Label: LabelOK, EffectiveDate: day(20)},   // Z
	)

	entries := BuildEntries(10, candidates, PolicyGlobal)
	wantRanks := map[int64]int{2: 1, 1: 2, 3: 3}
	for _, e := range entries {
		if want := wantRanks[e.VenueID]; e.Rank != want {
			t.Errorf("venue %d rank = %d, want %d", e.VenueID, e.Rank, want)
		}
	}
}

func TestBuildEntries_PerTierNumbering(t *testing.T) {
	candidates := candidateSet(
		Candidate{VenueID: 1, Label: LabelBest, EffectiveDate: day(2)},
		Candidate{VenueID: 2, Label: LabelBest, EffectiveDate: day(1)},
		Candidate{VenueID: 3, Label: LabelGood, EffectiveDate: day(1)},
		Candidate{VenueID: 4, Label: LabelBad, EffectiveDate: day(1)},
	)

	entries := BuildEntries(10, candidates, PolicyPerTier)

	wantRanks := map[int64]int{1: 1, 2: 2, 3: 1, 4: 1}
	for _, e := range entries {
		if want := wantRanks[e.VenueID]; e.Rank != want {
			t.Errorf("venue %d rank = %d, want %d", e.VenueID, e.Rank, want)
		}
	}
}

func TestBuildEntries_OrderWithinTier(t *testing.T) {
	// Within a tier: most recent effective date first, then venue id
	// ascending on exact date ties.
	candidates := candidateSet(
		Candidate{VenueID: 9, Label: LabelGood, EffectiveDate: day(1)},
		Candidate{VenueID: 5, Label: LabelGood, EffectiveDate: day(4)},
		Candidate{VenueID: 7, Label: LabelGood, EffectiveDate: day(1)},
		Candidate{VenueID: 2, Label: LabelGood, EffectiveDate: day(1)},
	)

	entries := BuildEntries(10, candidates, PolicyGlobal)
	gotOrder := make([]int64, len(entries))
	for i, e := range entries {
		gotOrder[i] = e.VenueID
	}

	wantOrder := []int64{5, 2, 7, 9}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}
}

func TestBuildEntries_Empty(t *testing.T) {
	if entries := BuildEntries(10, nil, PolicyGlobal); len(entries) != 0 {
		t.Errorf("expected no entries for empty candidates, got %d", len(entries))
	}
}

func TestValidateEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		policy  Policy
		wantErr bool
	}{
		{
			name: "valid global permutation",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 1},
				{VenueID: 2, Tier: TierGood, Rank: 2},
				{VenueID: 3, Tier: TierOK, Rank: 3},
			},
			policy: PolicyGlobal,
		},
		{
			name: "valid per-tier permutation",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 1},
				{VenueID: 2, Tier: TierBest, Rank: 2},
				{VenueID: 3, Tier: TierGood, Rank: 1},
			},
			policy: PolicyPerTier,
		},
		{
			name:    "empty list",
			entries: nil,
			policy:  PolicyGlobal,
		},
		{
			name: "duplicate venue",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 1},
				{VenueID: 1, Tier: TierGood, Rank: 2},
			},
			policy:  PolicyGlobal,
			wantErr: true,
		},
		{
			name: "zero rank",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 0},
			},
			policy:  PolicyGlobal,
			wantErr: true,
		},
		{
			name: "gap in global numbering",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 1},
				{VenueID: 2, Tier: TierGood, Rank: 3},
			},
			policy:  PolicyGlobal,
			wantErr: true,
		},
		{
			name: "per-tier ranks validated as global",
			entries: []Entry{
				{VenueID: 1, Tier: TierBest, Rank: 1},
				{VenueID: 2, Tier: TierGood, Rank: 1},
			},
			policy:  PolicyGlobal,
			wantErr: true,
		},
		{
			name: "out-of-range tier",
			entries: []Entry{
				{VenueID: 1, Tier: Tier(9), Rank: 1},
			},
			policy:  PolicyGlobal,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntries(tt.entries, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntries() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildEntries_AlwaysValidates(t *testing.T) {
	// Whatever the candidate mix, BuildEntries must emit a list that passes
	// its own invariants under both policies.
	candidates := candidateSet(
		Candidate{VenueID: 1, Label: LabelBest, EffectiveDate: day(3)},
		Candidate{VenueID: 2, Label: LabelBest, EffectiveDate: day(3)},
		Candidate{VenueID: 3, Label: LabelBad, EffectiveDate: day(2)},
		Candidate{VenueID: 4, Label: "unknown", EffectiveDate: day(1)},
		Candidate{VenueID: 5, Label: LabelOK, EffectiveDate: day(9)},
	)

	for _, policy := range []Policy{PolicyGlobal, PolicyPerTier} {
		entries := BuildEntries(10, candidates, policy)
		if err := ValidateEntries(entries, policy); err != nil {
			t.Errorf("policy %s: %v", policy, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("global"); err != nil {
		t.Errorf("ParsePolicy(global) error = %v", err)
	}
	if _, err := ParsePolicy("per_tier"); err != nil {
		t.Errorf("ParsePolicy(per_tier) error = %v", err)
	}
	if _, err := ParsePolicy("tiered"); err == nil {
		t.Error("ParsePolicy(tiered) expected error")
	}
}
