// Package recommend orchestrates the generate/evaluate/trace cycle behind
// the API. Every flow follows the same shape: start a run, record each
// stage as a span, end the run with the outcome, then flush traces and
// persist history best-effort.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/service/engine"
	"github.com/wellspring-ai/wellspring/internal/service/judge"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

// ErrInvalidType is returned when the request names an unknown
// recommendation type.
var ErrInvalidType = errors.New("recommend: invalid recommendation type")

// ErrInvalidVariantCount is returned when an experiment asks for fewer than
// one or more than model.MaxVariantCount variants.
var ErrInvalidVariantCount = errors.New("recommend: invalid variant count")

// Service wires the generators, the judge, the trace store and the history
// store into the API-facing flows.
type Service struct {
	engine  *engine.Engine
	judge   *judge.Judge
	traces  *trace.Store
	history storage.Store // nil disables persistence
	logger  *slog.Logger
}

// New creates the orchestration service. history may be nil to run without
// persistence.
func New(eng *engine.Engine, j *judge.Judge, traces *trace.Store, history storage.Store, logger *slog.Logger) *Service {
	return &Service{
		engine:  eng,
		judge:   j,
		traces:  traces,
		history: history,
		logger:  logger,
	}
}

// Recommend runs the single-recommendation flow: generate, optionally
// evaluate across all four dimensions, and close the run with a quality
// score.
func (s *Service) Recommend(ctx context.Context, req model.RecommendRequest) (model.RecommendResponse, error) {
	if !model.ValidRecommendationType(req.RecommendationType) {
		return model.RecommendResponse{}, ErrInvalidType
	}

	runID := "run-" + uuid.NewString()
	if _, err := s.traces.StartRun(runID, map[string]any{
		"type":         string(req.RecommendationType),
		"user_profile": req.UserProfile,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return model.RecommendResponse{}, err
	}

	// A run left in the running state would skew the dashboard forever, so
	// anything that unwinds past this point marks it failed.
	completed := false
	defer func() {
		if !completed {
			s.traces.FailRun(runID, errors.New("recommendation flow aborted"))
		}
	}()

	genStart := time.Now()
	rec := s.engine.GenerateRecommendation(ctx, req.UserProfile, req.RecommendationType)
	s.traces.AddSpan(runID, "generate_recommendation",
		map[string]any{"type": string(req.RecommendationType), "user_profile": req.UserProfile},
		map[string]any{"recommendation": rec},
		map[string]any{"duration_ms": time.Since(genStart).Milliseconds()},
	)

	var bundle *model.EvaluationBundle
	if req.EvaluateResult == nil || *req.EvaluateResult {
		evalStart := time.Now()
		verdicts := s.judge.EvaluateAll(ctx, rec.Description, req.UserProfile, model.AllDimensions)
		ordered := orderedVerdicts(verdicts, model.AllDimensions)
		bundle = &model.EvaluationBundle{
			IndividualEvals: verdicts,
			Aggregate:       judge.Aggregate(ordered),
		}
		s.traces.AddSpan(runID, "evaluate_recommendation",
			map[string]any{"recommendation": rec.Description},
			map[string]any{"evaluation": bundle},
			map[string]any{"duration_ms": time.Since(evalStart).Milliseconds(), "eval_count": len(ordered)},
		)
	}

	quality := 0
	if bundle != nil && bundle.Aggregate != nil {
		quality = bundle.Aggregate.AvgSafetyScore
	}
	ended, _ := s.traces.EndRun(runID, map[string]any{
		"recommendation": rec,
		"evaluation":     bundle,
		"quality_score":  quality,
	})
	completed = true

	s.persistRecommendation(ctx, req, rec, bundle, runID)
	s.flush(ctx)

	return model.RecommendResponse{
		Success:        true,
		RunID:          runID,
		Recommendation: rec,
		Evaluation:     bundle,
		Trace: model.TraceSummary{
			RunID:           runID,
			SpansCount:      len(ended.Spans),
			TotalDurationMS: ended.Duration().Milliseconds(),
		},
	}, nil
}

// Experiment generates variantCount recommendations, evaluates each on the
// experiment dimensions under its own run, and picks the variant with the
// highest combined score. Ties keep the earlier variant.
func (s *Service) Experiment(ctx context.Context, req model.ExperimentRequest) (model.ExperimentResponse, error) {
	if !model.ValidRecommendationType(req.RecommendationType) {
		return model.ExperimentResponse{}, ErrInvalidType
	}
	count := req.VariantCount
	if count == 0 {
		count = 3
	}
	if count < 1 || count > model.MaxVariantCount {
		return model.ExperimentResponse{}, fmt.Errorf("%w: %d", ErrInvalidVariantCount, count)
	}

	expID := "exp-" + uuid.NewString()
	name := req.ExperimentName
	if name == "" {
		name = fmt.Sprintf("%s variants", req.RecommendationType)
	}
	exp := s.traces.CreateExperiment(expID, name,
		fmt.Sprintf("Comparing %d variants of %s recommendations", count, req.RecommendationType))

	variants := s.engine.GenerateVariants(ctx, req.UserProfile, req.RecommendationType, count)

	evaluated := make([]model.EvaluatedVariant, 0, len(variants))
	for i, variant := range variants {
		runID := fmt.Sprintf("variant-%s-%d", expID, i)
		if _, err := s.traces.StartRun(runID, map[string]any{
			"variant_index": i,
			"experiment_id": expID,
			"type":          string(req.RecommendationType),
		}); err != nil {
			return model.ExperimentResponse{}, err
		}

		verdicts := s.judge.EvaluateAll(ctx, variant.Description, req.UserProfile, model.ExperimentDimensions)
		ordered := orderedVerdicts(verdicts, model.ExperimentDimensions)
		aggregated := judge.Aggregate(ordered)

		s.traces.AddSpan(runID, "evaluate_variant",
			map[string]any{"variant": variant.Title},
			map[string]any{"evaluations": ordered, "aggregated": aggregated},
			map[string]any{"variant_index": i},
		)
		s.traces.EndRun(runID, map[string]any{
			"variant":           variant.Title,
			"aggregated_scores": aggregated,
		})
		s.traces.AddRunToExperiment(expID, runID)

		evaluated = append(evaluated, model.EvaluatedVariant{
			VariantIndex: i,
			Title:        variant.Title,
			Duration:     variant.Duration,
			Difficulty:   variant.Difficulty,
			Scores: model.VariantScores{
				Safety:          verdicts[model.DimensionSafety].SafetyScore,
				Personalization: verdicts[model.DimensionPersonalization].PersonalizationScore,
				Feasibility:     verdicts[model.DimensionFeasibility].FeasibilityScore,
			},
			Aggregated:  aggregated,
			PIIDetected: verdicts[model.DimensionSafety].HasPII,
		})
	}

	winner := pickWinner(evaluated)

	s.flush(ctx)
	s.persistExperiment(ctx, req, name, expID, evaluated, winner)

	return model.ExperimentResponse{
		Success:           true,
		ExperimentID:      expID,
		ExperimentName:    exp.Name,
		VariantsEvaluated: len(evaluated),
		Winner: model.ExperimentWinner{
			VariantIndex:  winner.VariantIndex,
			Title:         winner.Title,
			CombinedScore: int(math.Round(winner.Scores.Combined())),
		},
		AllVariants: evaluated,
		TraceData: model.ExperimentTraceData{
			ExperimentID: expID,
			TotalRuns:    len(evaluated),
			CreatedAt:    exp.CreatedAt,
		},
	}, nil
}

// pickWinner folds left to right keeping the variant with the strictly
// highest combined score, so the first of tied variants wins.
func pickWinner(variants []model.EvaluatedVariant) model.EvaluatedVariant {
	winner := variants[0]
	for _, v := range variants[1:] {
		if v.Scores.Combined() > winner.Scores.Combined() {
			winner = v
		}
	}
	return winner
}

func orderedVerdicts(verdicts map[model.Dimension]model.EvaluationResult, dims []model.Dimension) []model.EvaluationResult {
	ordered := make([]model.EvaluationResult, 0, len(dims))
	for _, dim := range dims {
		ordered = append(ordered, verdicts[dim])
	}
	return ordered
}

func (s *Service) persistRecommendation(ctx context.Context, req model.RecommendRequest, rec model.Recommendation, bundle *model.EvaluationBundle, runID string) {
	if s.history == nil {
		return
	}

	stored := storage.StoredRecommendation{
		UserProfile:        req.UserProfile,
		RecommendationType: string(req.RecommendationType),
		Recommendation:     rec,
		Evaluation:         storage.DefaultEvaluation(),
		RunID:              runID,
		UserID:             req.UserID,
	}
	if bundle != nil && bundle.Aggregate != nil {
		agg := bundle.Aggregate
		stored.Evaluation = storage.StoredEvaluation{
			SafetyScore:           agg.AvgSafetyScore,
			PersonalizationScore:  agg.AvgPersonalizationScore,
			FeasibilityScore:      agg.AvgFeasibilityScore,
			ComplianceChecked:     true,
			PIIDetected:           agg.PIIDetectionRate > 0,
			MedicalClaimsDetected: agg.TotalComplianceIssues > 0,
		}
	}

	if _, err := s.history.SaveRecommendation(ctx, stored); err != nil {
		s.logger.Warn("recommend: history save failed", "run_id", runID, "error", err)
	}
}

func (s *Service) persistExperiment(ctx context.Context, req model.ExperimentRequest, name, expID string, variants []model.EvaluatedVariant, winner model.EvaluatedVariant) {
	if s.history == nil {
		return
	}

	_, err := s.history.SaveExperiment(ctx, storage.StoredExperiment{
		Name:         name,
		Type:         string(req.RecommendationType),
		Variants:     variants,
		WinnerID:     fmt.Sprintf("%d", winner.VariantIndex),
		ExperimentID: expID,
		UserID:       req.UserID,
	})
	if err != nil {
		s.logger.Warn("recommend: experiment save failed", "experiment_id", expID, "error", err)
	}
}

func (s *Service) flush(ctx context.Context) {
	if err := s.traces.Flush(ctx); err != nil {
		s.logger.Warn("recommend: trace flush failed", "error", err)
	}
}
