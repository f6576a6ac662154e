package visit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed visit store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// ListActiveByUser returns all non-deleted records authored by a user.
func (s *PostgresStore) ListActiveByUser(ctx context.Context, userID int64) ([]*Record, error) {
	query := `
		SELECT id, user_id, venue_id, visit_date, satisfaction, is_deleted, created_at, updated_at
		FROM visits
		WHERE user_id = $1 AND is_deleted = FALSE
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list visits for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			rec          Record
			venueID      sql.NullInt64
			visitDate    sql.NullTime
			satisfaction sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &venueID, &visitDate, &satisfaction, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		if venueID.Valid {
			rec.VenueID = &venueID.Int64
		}
		if visitDate.Valid {
			d := visitDate.Time
			rec.VisitDate = &d
		}
		if satisfaction.Valid {
			rec.Satisfaction = satisfaction.String
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit rows: %w", err)
	}
	return out, nil
}

// ActiveAuthors returns the distinct user ids with at least one non-deleted record.
func (s *PostgresStore) ActiveAuthors(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id FROM visits
		WHERE is_deleted = FALSE
		ORDER BY user_id
	`
	return s.queryIDs(ctx, query)
}

// AuthorsSince returns the distinct user ids with at least one non-deleted
// record created at or after since.
func (s *PostgresStore) AuthorsSince(ctx context.Context, since time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id FROM visits
		WHERE is_deleted = FALSE AND created_at >= $1
		ORDER BY user_id
	`
	return s.queryIDs(ctx, query, since)
}

func (s *PostgresStore) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query author ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan author id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate author ids: %w", err)
	}
	return ids, nil
}
