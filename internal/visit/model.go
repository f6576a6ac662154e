// Package visit provides models and repositories for user visit records,
// the raw review data the ranking pipeline is projected from.
package visit

import (
	"time"
)

// Record represents one authored visit/review. Records are soft-deleted,
// never removed; the ranking pipeline only ever sees non-deleted rows.
type Record struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	// VenueID is nil for records that never referenced a venue (free-form
	// posts). Such records are not ranking candidates.
	VenueID *int64 `json:"venue_id,omitempty"`

	// VisitDate is explicit user-entered metadata and may be absent.
	VisitDate *time.Time `json:"visit_date,omitempty"`

	// Satisfaction is a free-form label ("best", "good", "ok", "bad").
	// Empty means the author skipped it.
	Satisfaction string `json:"satisfaction,omitempty"`

	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveDate returns the recency marker used for ranking: the explicit
// visit date when present, otherwise the record creation time.
func (r *Record) EffectiveDate() time.Time {
	if r.VisitDate != nil {
		return *r.VisitDate
	}
	return r.CreatedAt
}
