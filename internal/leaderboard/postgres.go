package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed leaderboard store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// ReplaceAll deletes every persisted entry and inserts the new set in one
// transaction.
func (s *PostgresStore) ReplaceAll(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("begin leaderboard replace tx: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback leaderboard replace",
				slog.String("error", err.Error()))
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return fmt.Errorf("delete old leaderboard entries: %w", err)
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("leaderboard_entries", "scope", "scope_key", "user_id", "rank", "score", "stats"))
		if err != nil {
			return fmt.Errorf("prepare leaderboard copy: %w", err)
		}
		for _, e := range entries {
			stats, err := json.Marshal(e.Stats)
			if err != nil {
				stmt.Close()
				return fmt.Errorf("encode stats for user %d: %w", e.UserID, err)
			}
			var key sql.NullString
			if e.ScopeKey != "" {
				key = sql.NullString{String: e.ScopeKey, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, string(e.Scope), key, e.UserID, e.Rank, e.Score, string(stats)); err != nil {
				stmt.Close()
				return fmt.Errorf("copy leaderboard entry for user %d: %w", e.UserID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flush leaderboard copy: %w", err)
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("close leaderboard copy: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit leaderboard replace: %w", err)
	}
	return nil
}

// List returns a page of one scoped listing ordered by rank ascending.
func (s *PostgresStore) List(ctx context.Context, scope Scope, key string, offset, limit int) ([]Entry, error) {
	query := `
		SELECT scope, scope_key, user_id, rank, score, stats
		FROM leaderboard_entries
		WHERE scope = $1 AND scope_key IS NOT DISTINCT FROM $2
		ORDER BY rank ASC
		OFFSET $3 LIMIT $4
	`
	var scopeKey sql.NullString
	if key != "" {
		scopeKey = sql.NullString{String: key, Valid: true}
	}
	rows, err := s.db.QueryContext(ctx, query, string(scope), scopeKey, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard %s/%s: %w", scope, key, err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			rawKey   sql.NullString
			stats    []byte
			scopeStr string
		)
		if err := rows.Scan(&scopeStr, &rawKey, &e.UserID, &e.Rank, &e.Score, &stats); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Scope = Scope(scopeStr)
		if rawKey.Valid {
			e.ScopeKey = rawKey.String
		}
		if err := json.Unmarshal(stats, &e.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for user %d: %w", e.UserID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard entries: %w", err)
	}
	return out, nil
}

// ScopeKeys returns the distinct non-null keys present for a scope.
func (s *PostgresStore) ScopeKeys(ctx context.Context, scope Scope) ([]string, error) {
	query := `
		SELECT DISTINCT scope_key FROM leaderboard_entries
		WHERE scope = $1 AND scope_key IS NOT NULL
		ORDER BY scope_key
	`
	rows, err := s.db.QueryContext(ctx, query, string(scope))
	if err != nil {
		return nil, fmt.Errorf("list scope keys for %s: %w", scope, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan scope key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scope keys: %w", err)
	}
	return keys, nil
}

// PostgresStatsSource aggregates per-user activity counts for the refresh:
// non-deleted visits and the likes received on them, plus the user's scope
// keys.
type PostgresStatsSource struct {
	db *sql.DB
}

// NewPostgresStatsSource creates a stats source over the main database.
func NewPostgresStatsSource(db *sql.DB) *PostgresStatsSource {
	return &PostgresStatsSource{db: db}
}

// AllUserStats returns one row per user with content and like counts.
func (s *PostgresStatsSource) AllUserStats(ctx context.Context) ([]UserStats, error) {
	query := `
		SELECT u.id,
		       COALESCE(u.affiliation, ''),
		       COALESCE(u.neighborhood, ''),
		       COUNT(DISTINCT v.id),
		       COUNT(DISTINCT l.id)
		FROM users u
		LEFT JOIN visits v ON v.user_id = u.id AND v.is_deleted = FALSE
		LEFT JOIN likes l ON l.target_id = v.id AND l.target_type = 'visit'
		GROUP BY u.id
		ORDER BY u.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("aggregate user stats: %w", err)
	}
	defer rows.Close()

	var out []UserStats
	for rows.Next() {
		var u UserStats
		if err := rows.Scan(&u.UserID, &u.Affiliation, &u.Neighborhood, &u.ContentCount, &u.ReceivedLikes); err != nil {
			return nil, fmt.Errorf("scan user stats: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user stats: %w", err)
	}
	return out, nil
}
