package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite implements Store on a local file (or :memory:) database. It exists
// for development and tests so the service runs without a Postgres
// instance; deployments use the Postgres store.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	user_profile TEXT NOT NULL,
	recommendation_type TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	evaluation TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS experiments (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	variants TEXT NOT NULL,
	winner_id TEXT NOT NULL DEFAULT '',
	experiment_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT ''
);
`

// NewSQLite opens (and if needed creates) the database at path and applies
// the schema.
func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// modernc/sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: apply sqlite schema: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

// Ping verifies the database handle is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// SaveRecommendation inserts one recommendation record and returns its id.
func (s *SQLite) SaveRecommendation(ctx context.Context, rec StoredRecommendation) (string, error) {
	profile, recommendation, evaluation, err := marshalRecommendation(rec)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recommendations (id, created_at, user_profile, recommendation_type, recommendation, evaluation, run_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), string(profile), rec.RecommendationType,
		string(recommendation), string(evaluation), rec.RunID, rec.UserID,
	)
	if err != nil {
		return "", fmt.Errorf("storage: save recommendation: %w", err)
	}
	return id, nil
}

// SaveExperiment inserts one experiment record and returns its id.
func (s *SQLite) SaveExperiment(ctx context.Context, exp StoredExperiment) (string, error) {
	variants, err := marshalVariants(exp)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO experiments (id, created_at, name, type, variants, winner_id, experiment_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), exp.Name, exp.Type, string(variants),
		exp.WinnerID, exp.ExperimentID, exp.UserID,
	)
	if err != nil {
		return "", fmt.Errorf("storage: save experiment: %w", err)
	}
	return id, nil
}

// RecentRecommendations returns the newest records first.
func (s *SQLite) RecentRecommendations(ctx context.Context, limit int) ([]StoredRecommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, user_profile, recommendation_type, recommendation, evaluation, run_id, user_id
		FROM recommendations
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query recent recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSQLiteRecommendations(rows)
}

// RecommendationsByUser returns all of one user's records, newest first.
func (s *SQLite) RecommendationsByUser(ctx context.Context, userID string) ([]StoredRecommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, user_profile, recommendation_type, recommendation, evaluation, run_id, user_id
		FROM recommendations
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: query user recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSQLiteRecommendations(rows)
}

func scanSQLiteRecommendations(rows *sql.Rows) ([]StoredRecommendation, error) {
	var out []StoredRecommendation
	for rows.Next() {
		var (
			rec                                 StoredRecommendation
			profile, recommendation, evaluation string
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &profile, &rec.RecommendationType,
			&recommendation, &evaluation, &rec.RunID, &rec.UserID); err != nil {
			return nil, fmt.Errorf("storage: scan recommendation: %w", err)
		}
		if err := unmarshalRecommendation(&rec, []byte(profile), []byte(recommendation), []byte(evaluation)); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate recommendations: %w", err)
	}
	return out, nil
}
