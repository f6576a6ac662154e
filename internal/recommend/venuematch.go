package recommend

import (
	"math"

	"github.com/mimyapp/tasteranker/internal/ranking"
	"github.com/mimyapp/tasteranker/internal/taste"
)

// Venue match tunables.
const (
	// MatchPower sharpens the similarity weight: w = (similarity/100)^power.
	MatchPower = 2.0
	// MatchAlpha is the Bayesian prior weight pulling thin signal toward
	// the neutral prior mean.
	MatchAlpha = 0.2
	// MinRankedForEligibility excludes reviewers with short rank lists;
	// their percentiles carry too little information.
	MinRankedForEligibility = 100
	// MinEligibleReviewers is the floor below which no score is produced.
	MinEligibleReviewers = 3

	matchPriorMean = 0.0
)

// ReviewerSignal is one reviewer's contribution to a venue's match score:
// where they placed the venue in their rank list, the list size, the
// satisfaction tier, and their taste vector when known.
type ReviewerSignal struct {
	UserID int64
	Rank   int
	Total  int
	Tier   ranking.Tier
	Scores *taste.Vector
}

// SignalFromRanking adapts a rank-store signal, attaching the reviewer's
// vector when one exists.
func SignalFromRanking(sig ranking.Signal, profile *taste.Profile) ReviewerSignal {
	out := ReviewerSignal{
		UserID: sig.UserID,
		Rank:   sig.Rank,
		Total:  sig.Total,
		Tier:   sig.Tier,
	}
	if profile != nil {
		v := profile.Scores
		out.Scores = &v
	}
	return out
}

// VenueMatchScore estimates how well a venue matches the viewer's taste from
// the reviewers who ranked it, on a 0..100 scale.
//
// Each eligible reviewer contributes a satisfaction value in [-1, 1] derived
// from their tier and rank percentile, weighted by their taste similarity to
// the viewer. The weighted mean is shrunk toward a neutral prior so a couple
// of enthusiastic strangers cannot move the score far. Returns ok=false when
// the signal is too thin: viewer without a vector, fewer than
// MinEligibleReviewers eligible reviewers, or zero total weight.
func VenueMatchScore(viewer *taste.Vector, reviewers []ReviewerSignal, scorer *taste.Scorer) (int, bool) {
	if viewer == nil {
		return 0, false
	}

	eligible := reviewers[:0:0]
	for _, r := range reviewers {
		if r.Total >= MinRankedForEligibility {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) < MinEligibleReviewers {
		return 0, false
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, r := range eligible {
		if r.Scores == nil {
			continue
		}

		similarity := scorer.Score(*viewer, *r.Scores)
		w := math.Pow(similarity/100, MatchPower)

		weightedSum += w * satisfaction(r)
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0, false
	}

	raw := (MatchAlpha*matchPriorMean + weightedSum) / (MatchAlpha + totalWeight)

	score := int(math.Round(50 * (raw + 1)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

// satisfaction maps a reviewer's tier and rank percentile to [-1, 1]. Each
// tier owns a band: the reviewer's percentile positions the venue inside it.
func satisfaction(r ReviewerSignal) float64 {
	p := percentile(r.Rank, r.Total)
	switch r.Tier {
	case ranking.TierBest, ranking.TierGood:
		return 0.3 + 0.7*p
	case ranking.TierOK:
		return -0.2 + 0.4*p
	case ranking.TierBad:
		return -1.0 + 0.7*p
	default:
		return 2*p - 1
	}
}

// percentile maps rank position to [0, 1] with 1.0 at the top of the list.
// A single-entry list pins to 1.0.
func percentile(rank, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(rank-1)/float64(total-1)
}
