package ranking

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL with full transaction
// support for list replacement.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed rank store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// ReplaceUserRanking deletes the user's existing entries and inserts the new
// set inside a single transaction, so concurrent readers see either the old
// complete list or the new complete list.
func (s *PostgresStore) ReplaceUserRanking(ctx context.Context, userID int64, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("begin ranking rebuild tx for user %d: %w", userID, err)
	}

	// Always attempt rollback on function exit (no-op after successful commit)
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback ranking rebuild",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()))
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rank_entries WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete old rank entries for user %d: %w", userID, err)
	}

	if len(entries) > 0 {
		// Bulk insert via COPY; far cheaper than row-at-a-time for large lists.
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("rank_entries", "user_id", "venue_id", "tier", "rank"))
		if err != nil {
			return fmt.Errorf("prepare rank entry copy for user %d: %w", userID, err)
		}
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.UserID, e.VenueID, int(e.Tier), e.Rank); err != nil {
				stmt.Close()
				return fmt.Errorf("copy rank entry for user %d venue %d: %w", userID, e.VenueID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flush rank entry copy for user %d: %w", userID, err)
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("close rank entry copy for user %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ranking rebuild for user %d: %w", userID, err)
	}
	return nil
}

// ListUserRanking returns the user's entries ordered by tier desc, rank asc.
func (s *PostgresStore) ListUserRanking(ctx context.Context, userID int64) ([]Entry, error) {
	query := `
		SELECT user_id, venue_id, tier, rank
		FROM rank_entries
		WHERE user_id = $1
		ORDER BY tier DESC, rank ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rank entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			tier int
		)
		if err := rows.Scan(&e.UserID, &e.VenueID, &tier, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan rank entry: %w", err)
		}
		e.Tier = Tier(tier)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rank entries: %w", err)
	}
	return out, nil
}

// ListUsers returns the distinct user ids that currently have entries.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM rank_entries ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list ranked users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ranked user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked user ids: %w", err)
	}
	return ids, nil
}

// VenueSignals returns, for every user who ranked the venue, their entry and
// the size of their full rank list.
func (s *PostgresStore) VenueSignals(ctx context.Context, venueID int64) ([]Signal, error) {
	query := `
		SELECT r.user_id, r.rank, r.tier, c.total
		FROM rank_entries r
		JOIN (
			SELECT user_id, COUNT(*) AS total
			FROM rank_entries
			GROUP BY user_id
		) c ON c.user_id = r.user_id
		WHERE r.venue_id = $1
		ORDER BY r.user_id
	`
	rows, err := s.db.QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("list venue signals for venue %d: %w", venueID, err)
	}
	defer rows.Close()

	var signals []Signal
	for rows.Next() {
		var (
			sig  Signal
			tier int
		)
		if err := rows.Scan(&sig.UserID, &sig.Rank, &tier, &sig.Total); err != nil {
			return nil, fmt.Errorf("scan venue signal: %w", err)
		}
		sig.Tier = Tier(tier)
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venue signals: %w", err)
	}
	return signals, nil
}
