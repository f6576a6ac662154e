// Package leaderboard computes and serves scoped rank listings derived from
// per-user activity stats. Listings are rebuilt in bulk and read through a
// TTL cache; staleness inside the TTL window is accepted.
package leaderboard

import (
	"fmt"
	"sort"
)

// Scope identifies one leaderboard partition type.
type Scope string

const (
	ScopeOverall      Scope = "OVERALL"
	ScopeAffiliation  Scope = "AFFILIATION"
	ScopeNeighborhood Scope = "NEIGHBORHOOD"
)

// ParseScope converts a string to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeOverall, ScopeAffiliation, ScopeNeighborhood:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown leaderboard scope %q", s)
	}
}

// MaxEntries caps each scoped listing.
const MaxEntries = 100

// Score weights.
const (
	contentWeight = 5
	likeWeight    = 3
)

// Stats is the per-user activity snapshot carried on each entry.
type Stats struct {
	ContentCount  int `json:"content_count"`
	ReceivedLikes int `json:"received_likes"`
}

// Score computes the leaderboard score for a stats snapshot.
func (s Stats) Score() int {
	return s.ContentCount*contentWeight + s.ReceivedLikes*likeWeight
}

// Entry is one row of a scoped listing. ScopeKey is empty for OVERALL.
type Entry struct {
	Scope    Scope  `json:"scope"`
	ScopeKey string `json:"scope_key,omitempty"`
	UserID   int64  `json:"user_id"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
	Stats    Stats  `json:"stats"`
}

// UserStats is one user's aggregate activity plus the scope keys they belong
// to. Empty affiliation or neighborhood means the user has none.
type UserStats struct {
	UserID        int64
	ContentCount  int
	ReceivedLikes int
	Affiliation   string
	Neighborhood  string
}

// buildListing scores and ranks one scoped user set: score descending, user
// id ascending on ties so reruns produce identical listings, truncated to
// MaxEntries with dense ranks from 1.
func buildListing(scope Scope, key string, users []UserStats) []Entry {
	scored := make([]Entry, 0, len(users))
	for _, u := range users {
		stats := Stats{ContentCount: u.ContentCount, ReceivedLikes: u.ReceivedLikes}
		scored = append(scored, Entry{
			Scope:    scope,
			ScopeKey: key,
			UserID:   u.UserID,
			Score:    stats.Score(),
			Stats:    stats,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].UserID < scored[j].UserID
	})
	if len(scored) > MaxEntries {
		scored = scored[:MaxEntries]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

// buildAll produces every scoped listing from one stats pass: the overall
// listing plus one listing per distinct affiliation and neighborhood key.
func buildAll(users []UserStats) []Entry {
	entries := buildListing(ScopeOverall, "", users)

	byAffiliation := make(map[string][]UserStats)
	byNeighborhood := make(map[string][]UserStats)
	for _, u := range users {
		if u.Affiliation != "" {
			byAffiliation[u.Affiliation] = append(byAffiliation[u.Affiliation], u)
		}
		if u.Neighborhood != "" {
			byNeighborhood[u.Neighborhood] = append(byNeighborhood[u.Neighborhood], u)
		}
	}

	for _, key := range sortedKeys(byAffiliation) {
		entries = append(entries, buildListing(ScopeAffiliation, key, byAffiliation[key])...)
	}
	for _, key := range sortedKeys(byNeighborhood) {
		entries = append(entries, buildListing(ScopeNeighborhood, key, byNeighborhood[key])...)
	}
	return entries
}

func sortedKeys(m map[string][]UserStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
