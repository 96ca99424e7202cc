// Package storage persists recommendation and experiment history.
//
// Persistence is best-effort by design: the orchestrator logs save failures
// and keeps serving, so a database outage degrades the history API without
// touching the generate path. Two backends implement Store: Postgres (via
// pgxpool) for deployments and SQLite for local development.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/wellspring-ai/wellspring/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// StoredEvaluation is the flattened evaluation summary saved with a
// recommendation. Recommendations saved without auto-evaluation get the
// permissive default from DefaultEvaluation.
type StoredEvaluation struct {
	SafetyScore           int  `json:"safety_score"`
	PersonalizationScore  int  `json:"personalization_score"`
	FeasibilityScore      int  `json:"feasibility_score"`
	ComplianceChecked     bool `json:"compliance_checked"`
	PIIDetected           bool `json:"pii_detected"`
	MedicalClaimsDetected bool `json:"medical_claims_detected"`
}

// DefaultEvaluation marks a record as unevaluated rather than unsafe.
func DefaultEvaluation() StoredEvaluation {
	return StoredEvaluation{
		SafetyScore:          100,
		PersonalizationScore: 100,
		FeasibilityScore:     100,
	}
}

// StoredRecommendation is one saved recommendation with its evaluation.
type StoredRecommendation struct {
	ID                 string               `json:"id"`
	CreatedAt          time.Time            `json:"created_at"`
	UserProfile        model.UserProfile    `json:"user_profile"`
	RecommendationType string               `json:"recommendation_type"`
	Recommendation     model.Recommendation `json:"recommendation"`
	Evaluation         StoredEvaluation     `json:"evaluation"`
	RunID              string               `json:"run_id,omitempty"`
	UserID             string               `json:"user_id,omitempty"`
}

// StoredExperiment is one saved experiment with all evaluated variants.
type StoredExperiment struct {
	ID           string                   `json:"id"`
	CreatedAt    time.Time                `json:"created_at"`
	Name         string                   `json:"name"`
	Type         string                   `json:"type"`
	Variants     []model.EvaluatedVariant `json:"variants"`
	WinnerID     string                   `json:"winner_id,omitempty"`
	ExperimentID string                   `json:"experiment_id,omitempty"`
	UserID       string                   `json:"user_id,omitempty"`
}

// Store is the history persistence interface.
type Store interface {
	SaveRecommendation(ctx context.Context, rec StoredRecommendation) (string, error)
	SaveExperiment(ctx context.Context, exp StoredExperiment) (string, error)
	RecentRecommendations(ctx context.Context, limit int) ([]StoredRecommendation, error)
	RecommendationsByUser(ctx context.Context, userID string) ([]StoredRecommendation, error)
	Ping(ctx context.Context) error
	Close()
}
