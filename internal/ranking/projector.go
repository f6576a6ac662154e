package ranking

import (
	"time"

	"github.com/mimyapp/tasteranker/internal/visit"
)

// Candidate is one representative ranking entry per venue, produced by
// projecting a user's visit records.
type Candidate struct {
	VenueID       int64
	Label         string
	EffectiveDate time.Time
}

// ProjectVisits folds a user's non-deleted visit records into at most one
// candidate per venue.
//
// Records without a venue reference are skipped; they are simply not
// ranking-eligible, never an error. When several records share a venue, the
// one with the latest effective date wins (ties broken by record id, so the
// later-authored record prevails). A missing satisfaction label is
// normalized to the "good" label.
//
// The fold is pure and deterministic: re-running it on an unchanged record
// set yields an identical candidate set.
func ProjectVisits(records []*visit.Record) map[int64]Candidate {
	candidates := make(map[int64]Candidate)
	winners := make(map[int64]*visit.Record)

	for _, rec := range records {
		if rec.IsDeleted || rec.VenueID == nil {
			continue
		}

		venueID := *rec.VenueID
		current, ok := winners[venueID]
		if ok {
			curDate := current.EffectiveDate()
			recDate := rec.EffectiveDate()
			if recDate.Before(curDate) {
				continue
			}
			if recDate.Equal(curDate) && rec.ID < current.ID {
				continue
			}
		}
		winners[venueID] = rec
	}

	for venueID, rec := range winners {
		label := rec.Satisfaction
		if label == "" {
			label = LabelGood
		}
		candidates[venueID] = Candidate{
			VenueID:       venueID,
			Label:         label,
			EffectiveDate: rec.EffectiveDate(),
		}
	}
	return candidates
}
