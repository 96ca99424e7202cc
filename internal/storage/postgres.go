package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a pooled Postgres store and verifies connectivity.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Pool returns the underlying connection pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// SaveRecommendation inserts one recommendation record and returns its id.
func (p *Postgres) SaveRecommendation(ctx context.Context, rec StoredRecommendation) (string, error) {
	profile, recommendation, evaluation, err := marshalRecommendation(rec)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	err = WithRetry(ctx, 2, 50*time.Millisecond, func() error {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO recommendations (id, user_profile, recommendation_type, recommendation, evaluation, run_id, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, profile, rec.RecommendationType, recommendation, evaluation,
			nullable(rec.RunID), nullable(rec.UserID),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("storage: save recommendation: %w", err)
	}
	return id, nil
}

// SaveExperiment inserts one experiment record and returns its id.
func (p *Postgres) SaveExperiment(ctx context.Context, exp StoredExperiment) (string, error) {
	variants, err := marshalVariants(exp)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	err = WithRetry(ctx, 2, 50*time.Millisecond, func() error {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO experiments (id, name, type, variants, winner_id, experiment_id, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, exp.Name, exp.Type, variants,
			nullable(exp.WinnerID), nullable(exp.ExperimentID), nullable(exp.UserID),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("storage: save experiment: %w", err)
	}
	return id, nil
}

// RecentRecommendations returns the newest records first.
func (p *Postgres) RecentRecommendations(ctx context.Context, limit int) ([]StoredRecommendation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, user_profile, recommendation_type, recommendation, evaluation,
		       COALESCE(run_id, ''), COALESCE(user_id, '')
		FROM recommendations
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: query recent recommendations: %w", err)
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

// RecommendationsByUser returns all of one user's records, newest first.
func (p *Postgres) RecommendationsByUser(ctx context.Context, userID string) ([]StoredRecommendation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, user_profile, recommendation_type, recommendation, evaluation,
		       COALESCE(run_id, ''), COALESCE(user_id, '')
		FROM recommendations
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: query user recommendations: %w", err)
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

func scanRecommendations(rows pgx.Rows) ([]StoredRecommendation, error) {
	var out []StoredRecommendation
	for rows.Next() {
		var (
			rec                                 StoredRecommendation
			profile, recommendation, evaluation []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &profile, &rec.RecommendationType,
			&recommendation, &evaluation, &rec.RunID, &rec.UserID); err != nil {
			return nil, fmt.Errorf("storage: scan recommendation: %w", err)
		}
		if err := unmarshalRecommendation(&rec, profile, recommendation, evaluation); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate recommendations: %w", err)
	}
	return out, nil
}

func marshalRecommendation(rec StoredRecommendation) (profile, recommendation, evaluation []byte, err error) {
	if profile, err = json.Marshal(rec.UserProfile); err != nil {
		return nil, nil, nil, fmt.Errorf("storage: marshal profile: %w", err)
	}
	if recommendation, err = json.Marshal(rec.Recommendation); err != nil {
		return nil, nil, nil, fmt.Errorf("storage: marshal recommendation: %w", err)
	}
	if evaluation, err = json.Marshal(rec.Evaluation); err != nil {
		return nil, nil, nil, fmt.Errorf("storage: marshal evaluation: %w", err)
	}
	return profile, recommendation, evaluation, nil
}

func marshalVariants(exp StoredExperiment) ([]byte, error) {
	variants, err := json.Marshal(exp.Variants)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal variants: %w", err)
	}
	return variants, nil
}

func unmarshalRecommendation(rec *StoredRecommendation, profile, recommendation, evaluation []byte) error {
	if err := json.Unmarshal(profile, &rec.UserProfile); err != nil {
		return fmt.Errorf("storage: unmarshal profile: %w", err)
	}
	if err := json.Unmarshal(recommendation, &rec.Recommendation); err != nil {
		return fmt.Errorf("storage: unmarshal recommendation: %w", err)
	}
	if err := json.Unmarshal(evaluation, &rec.Evaluation); err != nil {
		return fmt.Errorf("storage: unmarshal evaluation: %w", err)
	}
	return nil
}

// nullable maps empty strings to NULL so partial records don't store empty
// text.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
