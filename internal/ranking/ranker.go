package ranking

import (
	"fmt"
	"sort"
)

// BuildEntries orders a user's candidates and assigns dense ranks under the
// given policy.
//
// Sort order is (tier descending, effective date descending, venue id
// ascending): higher satisfaction first, most recent visit first within a
// tier, venue id as the fixed final tie-break so output ordering is stable
// across runs.
func BuildEntries(userID int64, candidates map[int64]Candidate, policy Policy) []Entry {
	if len(candidates) == 0 {
		return nil
	}

	type scored struct {
		Candidate
		tier Tier
	}
	ordered := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		ordered = append(ordered, scored{Candidate: cand, tier: ClassifyLabel(cand.Label)})
	}

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.After(b.EffectiveDate)
		}
		return a.VenueID < b.VenueID
	})

	entries := make([]Entry, 0, len(ordered))
	rank := 0
	var prevTier Tier
	for i, cand := range ordered {
		if policy == PolicyPerTier && (i == 0 || cand.tier != prevTier) {
			rank = 0
		}
		rank++
		prevTier = cand.tier

		entries = append(entries, Entry{
			UserID:  userID,
			VenueID: cand.VenueID,
			Tier:    cand.tier,
			Rank:    rank,
		})
	}
	return entries
}

// ValidateEntries checks the invariants a rebuilt rank list must satisfy:
// at most one entry per venue, and rank values forming a dense permutation
// starting at 1 (globally under PolicyGlobal, within each tier under
// PolicyPerTier). A violation here is a bug in rank assignment and is
// reported loudly rather than tolerated.
func ValidateEntries(entries []Entry, policy Policy) error {
	venues := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := venues[e.VenueID]; dup {
			return fmt.Errorf("duplicate venue %d in rank list", e.VenueID)
		}
		venues[e.VenueID] = struct{}{}
		if e.Rank < 1 {
			return fmt.Errorf("venue %d has non-positive rank %d", e.VenueID, e.Rank)
		}
		if e.Tier < TierBad || e.Tier > TierBest {
			return fmt.Errorf("venue %d has out-of-range tier %d", e.VenueID, e.Tier)
		}
	}

	groups := make(map[Tier][]int)
	for _, e := range entries {
		key := Tier(-1) // single group under global numbering
		if policy == PolicyPerTier {
			key = e.Tier
		}
		groups[key] = append(groups[key], e.Rank)
	}

	for tier, ranks := range groups {
		seen := make(map[int]struct{}, len(ranks))
		for _, r := range ranks {
			if _, dup := seen[r]; dup {
				return fmt.Errorf("duplicate rank %d (tier group %d)", r, tier)
			}
			seen[r] = struct{}{}
		}
		for want := 1; want <= len(ranks); want++ {
			if _, ok := seen[want]; !ok {
				return fmt.Errorf("rank %d missing from dense permutation of size %d (tier group %d)", want, len(ranks), tier)
			}
		}
	}
	return nil
}
