package taste

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL. Vectors are stored as a
// jsonb object keyed by axis name in taste_profiles.scores.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed profile store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// GetProfile returns a user's profile, or nil when the user has none.
func (s *PostgresStore) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	query := `
		SELECT user_id, version, scores, cluster_id, updated_at
		FROM taste_profiles
		WHERE user_id = $1
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get taste profile for user %d: %w", userID, err)
	}
	return p, nil
}

// GetProfiles returns the profiles of the given users, keyed by user id.
func (s *PostgresStore) GetProfiles(ctx context.Context, userIDs []int64) (map[int64]*Profile, error) {
	if len(userIDs) == 0 {
		return map[int64]*Profile{}, nil
	}

	query := `
		SELECT user_id, version, scores, cluster_id, updated_at
		FROM taste_profiles
		WHERE user_id = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get taste profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*Profile, len(userIDs))
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan taste profile row: %w", err)
		}
		out[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taste profile rows: %w", err)
	}
	return out, nil
}

// SaveProfile inserts or replaces a user's profile.
func (s *PostgresStore) SaveProfile(ctx context.Context, profile *Profile) error {
	scores, err := json.Marshal(profile.Scores)
	if err != nil {
		return fmt.Errorf("encode taste scores: %w", err)
	}

	version := profile.Version
	if version == 0 {
		version = ProfileVersion
	}

	query := `
		INSERT INTO taste_profiles (user_id, version, scores, cluster_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			version = EXCLUDED.version,
			scores = EXCLUDED.scores,
			cluster_id = EXCLUDED.cluster_id,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, profile.UserID, version, scores, profile.ClusterID); err != nil {
		return fmt.Errorf("save taste profile for user %d: %w", profile.UserID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p      Profile
		scores []byte
	)
	if err := row.Scan(&p.UserID, &p.Version, &scores, &p.ClusterID, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &p.Scores); err != nil {
		return nil, fmt.Errorf("decode taste scores: %w", err)
	}
	return &p, nil
}
