package taste

import "math"

// DefaultSigma is the default Gaussian kernel bandwidth. Calibrated so a
// one-step difference on a single axis stays well above the similarity
// threshold of 70 while opposite extremes on every axis score near zero.
const DefaultSigma = 5.0

// SimilarThreshold is the score at or above which two users count as
// taste-similar for recommendation filtering.
const SimilarThreshold = 70.0

// Scorer computes a bounded, symmetric compatibility score between two
// preference vectors using a Gaussian (RBF) kernel over squared Euclidean
// distance. Stateless and safe for concurrent use.
type Scorer struct {
	sigma float64
}

// NewScorer creates a Scorer with the given bandwidth. A non-positive sigma
// falls back to DefaultSigma.
func NewScorer(sigma float64) *Scorer {
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	return &Scorer{sigma: sigma}
}

// Sigma returns the configured kernel bandwidth.
func (s *Scorer) Sigma() float64 {
	return s.sigma
}

// Score returns 100 * exp(-d2 / (2*sigma^2)) where d2 is the squared
// Euclidean distance between the vectors. Identical vectors score exactly
// 100; the score decays monotonically toward 0 as distance grows and never
// leaves [0, 100].
func (s *Scorer) Score(a, b Vector) float64 {
	d2 := 0.0
	for i := range a {
		diff := float64(a[i] - b[i])
		d2 += diff * diff
	}
	return 100 * math.Exp(-d2/(2*s.sigma*s.sigma))
}

// ScoreProfiles scores two possibly-absent profiles. A missing vector on
// either side makes the pair ineligible: the score is 0 and ok is false.
// Absence is a normal state, never an error.
func (s *Scorer) ScoreProfiles(a, b *Profile) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return s.Score(a.Scores, b.Scores), true
}
