package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wellspring-ai/wellspring/internal/model"
)

// NutritionPlan runs the meal-plan flow under its own traced run.
func (s *Service) NutritionPlan(ctx context.Context, req model.NutritionRequest) (model.PlanResponse, error) {
	runID := "run-nutrition-" + uuid.NewString()
	if _, err := s.traces.StartRun(runID, map[string]any{
		"type":              "nutrition_plan",
		"user_profile":      req.UserProfile,
		"nutrition_context": req.NutritionContext,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return model.PlanResponse{}, err
	}

	genStart := time.Now()
	result := s.engine.GenerateMealPlan(ctx, req.UserProfile, req.NutritionContext)
	s.traces.AddSpan(runID, "generate_meal_plan",
		map[string]any{"user_profile": req.UserProfile, "nutrition_context": req.NutritionContext},
		map[string]any{"result": result},
		map[string]any{"duration_ms": time.Since(genStart).Milliseconds()},
	)
	s.traces.EndRun(runID, map[string]any{
		"result":     result,
		"items_used": len(req.NutritionContext.FridgeContents),
	})
	s.flush(ctx)

	return model.PlanResponse{Success: true, RunID: runID, Result: result}, nil
}

// MedicalPlan runs the preventive-care flow under its own traced run.
func (s *Service) MedicalPlan(ctx context.Context, req model.MedicalRequest) (model.PlanResponse, error) {
	runID := "run-medical-" + uuid.NewString()
	if _, err := s.traces.StartRun(runID, map[string]any{
		"type":            "medical_plan",
		"user_profile":    req.UserProfile,
		"medical_context": req.MedicalContext,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return model.PlanResponse{}, err
	}

	genStart := time.Now()
	result := s.engine.GenerateMedicalPlan(ctx, req.UserProfile, req.MedicalContext)
	s.traces.AddSpan(runID, "generate_medical_plan",
		map[string]any{"user_profile": req.UserProfile, "medical_context": req.MedicalContext},
		map[string]any{"result": result},
		map[string]any{"duration_ms": time.Since(genStart).Milliseconds()},
	)
	s.traces.EndRun(runID, map[string]any{
		"result":       result,
		"has_symptoms": len(req.MedicalContext.SymptomLog) > 0,
	})
	s.flush(ctx)

	return model.PlanResponse{Success: true, RunID: runID, Result: result}, nil
}

// MindfulnessIntervention runs the stress-intervention flow under its own
// traced run.
func (s *Service) MindfulnessIntervention(ctx context.Context, req model.MindfulnessRequest) (model.PlanResponse, error) {
	runID := "run-mindfulness-" + uuid.NewString()
	if _, err := s.traces.StartRun(runID, map[string]any{
		"type":           "mindfulness_intervention",
		"user_profile":   req.UserProfile,
		"stress_context": req.StressContext,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return model.PlanResponse{}, err
	}

	genStart := time.Now()
	result := s.engine.GenerateIntervention(ctx, req.UserProfile, req.StressContext)
	s.traces.AddSpan(runID, "generate_intervention",
		map[string]any{"user_profile": req.UserProfile, "stress_context": req.StressContext},
		map[string]any{"result": result},
		map[string]any{"duration_ms": time.Since(genStart).Milliseconds()},
	)
	s.traces.EndRun(runID, map[string]any{
		"result":         result,
		"detected_state": result.DetectedStressState,
	})
	s.flush(ctx)

	return model.PlanResponse{Success: true, RunID: runID, Result: result}, nil
}

// ExerciseSchedule runs the workout-scheduling flow under its own traced
// run.
func (s *Service) ExerciseSchedule(ctx context.Context, req model.ExerciseRequest) (model.PlanResponse, error) {
	runID := "run-exercise-" + uuid.NewString()
	if _, err := s.traces.StartRun(runID, map[string]any{
		"type":             "exercise_schedule",
		"user_profile":     req.UserProfile,
		"schedule_context": req.ScheduleContext,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return model.PlanResponse{}, err
	}

	genStart := time.Now()
	result := s.engine.GenerateScheduledWorkout(ctx, req.UserProfile, req.ScheduleContext)
	s.traces.AddSpan(runID, "generate_exercise_schedule",
		map[string]any{"user_profile": req.UserProfile, "schedule_context": req.ScheduleContext},
		map[string]any{"result": result},
		map[string]any{"duration_ms": time.Since(genStart).Milliseconds()},
	)
	s.traces.EndRun(runID, map[string]any{
		"result":          result,
		"adjustment_made": req.ScheduleContext.MissedWorkouts > 0,
	})
	s.flush(ctx)

	return model.PlanResponse{Success: true, RunID: runID, Result: result}, nil
}
