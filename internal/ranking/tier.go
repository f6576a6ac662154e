package ranking

// Satisfaction labels as authored on visit records.
const (
	LabelBest = "best"
	LabelGood = "good"
	LabelOK   = "ok"
	LabelBad  = "bad"
)

// Tier is the ordinal satisfaction bucket derived from a label.
// Higher is better.
type Tier int

// Tier values, ordered worst to best.
const (
	TierBad  Tier = 0
	TierOK   Tier = 1
	TierGood Tier = 2
	TierBest Tier = 3
)

// ClassifyLabel maps a satisfaction label to its tier. Unrecognized or empty
// labels map to TierGood, the conservative default. This is a total function
// with no failure mode.
func ClassifyLabel(label string) Tier {
	switch label {
	case LabelBest:
		return TierBest
	case LabelGood:
		return TierGood
	case LabelOK:
		return TierOK
	case LabelBad:
		return TierBad
	default:
		return TierGood
	}
}

// String returns the canonical label for a tier.
func (t Tier) String() string {
	switch t {
	case TierBest:
		return LabelBest
	case TierGood:
		return LabelGood
	case TierOK:
		return LabelOK
	case TierBad:
		return LabelBad
	default:
		return LabelGood
	}
}
