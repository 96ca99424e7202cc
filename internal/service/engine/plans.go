package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/wellspring-ai/wellspring/internal/model"
)

const mealPlanContract = `Respond with a single JSON object with exactly these fields:
{
  "plan_name": <string>,
  "meals": [{"name": <string>, "ingredients": [<string>], "instructions": <string>, "calories": <number>, "missing_ingredients": [<ingredients not in the fridge>]}],
  "grocery_list": [<aggregated list of missing ingredients>],
  "nutritional_summary": <string>
}`

// GenerateMealPlan builds a meal plan from the fridge contents and the
// user's goals and restrictions.
func (e *Engine) GenerateMealPlan(ctx context.Context, profile model.UserProfile, nc model.NutritionContext) model.MealPlan {
	prompt := fmt.Sprintf(`You are a nutritionist.

User:
- Goals: %s
- Preferences: %s
- Restrictions: %s

Fridge Contents: %s

Task:
1. Create a meal plan for %d meals using as many fridge ingredients as possible.
2. List missing ingredients for the grocery list.
3. Ensure meals align with user goals.`,
		joinList(profile.Goals), joinList(profile.Preferences),
		joinList(nc.DietaryRestrictions), joinList(nc.FridgeContents), nc.MealsToPlan)
	prompt = strings.Join([]string{prompt, mealPlanContract}, "\n\n")

	var plan model.MealPlan
	if err := e.client.GenerateObject(ctx, prompt, &plan); err != nil {
		e.logger.Error("engine: meal plan generation failed", "error", err)
		return model.MealPlan{
			PlanName:           "Basic Healthy Plan",
			Meals:              []model.Meal{},
			GroceryList:        []string{},
			NutritionalSummary: "Error generating plan.",
		}
	}
	return plan
}

const medicalPlanContract = `Respond with a single JSON object with exactly these fields:
{
  "screenings_needed": [{"name": <string>, "reason": <string>, "urgency": <"routine" | "soon" | "urgent">, "frequency": <string>}],
  "symptom_analysis": <string, analysis of trends in symptoms>,
  "suggested_action": <string>,
  "questions_for_doctor": [<prepared questions for the next appointment>],
  "follow_up_required": <boolean>
}`

// GenerateMedicalPlan analyzes the symptom log and recommends preventive
// screenings. Output is guidance for a doctor conversation, not a
// diagnosis.
func (e *Engine) GenerateMedicalPlan(ctx context.Context, profile model.UserProfile, mc model.MedicalContext) model.MedicalActionPlan {
	prompt := fmt.Sprintf(`You are a proactive medical advocate.

User Profile:
- Age: %d
- Health Conditions: %s

Medical Context:
- Symptom Log: %s
- Last Checkup: %s

Task:
1. Identify age/condition-appropriate preventive screenings (e.g. skin checks, blood pressure, etc).
2. Analyze the symptom log for worrying trends.
3. Prepare questions for the doctor.
4. Suggest next steps (schedule appointment, monitor, etc).`,
		profile.Age, joinList(profile.HealthConditions),
		orDefault(strings.Join(mc.SymptomLog, "; "), "None"),
		orDefault(mc.LastCheckupDate, "Unknown"))
	prompt = strings.Join([]string{prompt, medicalPlanContract}, "\n\n")

	var plan model.MedicalActionPlan
	if err := e.client.GenerateObject(ctx, prompt, &plan); err != nil {
		e.logger.Error("engine: medical plan generation failed", "error", err)
		return model.MedicalActionPlan{
			ScreeningsNeeded:   []model.Screening{},
			SymptomAnalysis:    "Could not analyze symptoms.",
			SuggestedAction:    "Consult a doctor.",
			QuestionsForDoctor: []string{"How can I improve my general health?"},
			FollowUpRequired:   true,
		}
	}
	return plan
}

const interventionContract = `Respond with a single JSON object with exactly these fields:
{
  "detected_stress_state": <"relaxed" | "focused" | "stressed" | "overwhelmed">,
  "intervention_type": <"none" | "breathing" | "stretch" | "walk" | "music">,
  "title": <string>,
  "description": <string>,
  "steps": [<string>, optional],
  "duration_seconds": <number>,
  "audio_prompt": <string, text to be read aloud for guidance>
}`

// GenerateIntervention picks a mindfulness micro-intervention from the
// user's real-time stress signals.
func (e *Engine) GenerateIntervention(ctx context.Context, profile model.UserProfile, sc model.StressContext) model.MindfulnessIntervention {
	prompt := fmt.Sprintf(`You are an empathetic wellness assistant.

User Profile:
- Stress Level (Self-Reported): %d

Real-time Signals:
- Calendar Density: %s
- Typing Behavior: %s
- Device Readiness Score: %d (Lower is worse)
- Time: %s

Task:
1. Determine the user's likely stress state.
2. Prescribe a micro-intervention if needed (Breathing, Stretch, etc).
3. If they are relaxed, maybe just suggest staying focused or a light stretch.
4. Provide a soothing audio prompt script.`,
		profile.StressLevel, sc.CalendarDensity, sc.TypingSpeed, sc.ConnectedDeviceScore, sc.CurrentTime)
	prompt = strings.Join([]string{prompt, interventionContract}, "\n\n")

	var intervention model.MindfulnessIntervention
	if err := e.client.GenerateObject(ctx, prompt, &intervention); err != nil {
		e.logger.Error("engine: intervention generation failed", "error", err)
		return model.MindfulnessIntervention{
			DetectedStressState: "stressed",
			InterventionType:    "breathing",
			Title:               "Quick Reset",
			Description:         "Take a moment to reset.",
			Steps:               []string{"Inhale deeply", "Hold", "Exhale slowly"},
			DurationSeconds:     60,
			AudioPrompt:         "Let's take a deep breath together.",
		}
	}
	return intervention
}

const scheduledWorkoutContract = `Respond with a single JSON object with exactly these fields:
{
  "plan_name": <string>,
  "rationale": <string, why this plan was chosen given the missed workouts and schedule>,
  "schedule": [{"day": <string>, "time": <string>, "activity": <string>, "duration": <number>, "booking_action": <"book_class" | "set_reminder" | "self_guided">, "location": <string, optional>}],
  "adjustment_note": <string, optional, how the plan was adjusted due to missed sessions>
}`

// GenerateScheduledWorkout plans workouts into the user's open calendar
// slots, easing intensity when sessions were missed.
func (e *Engine) GenerateScheduledWorkout(ctx context.Context, profile model.UserProfile, sc model.ScheduleContext) model.ScheduledWorkout {
	prompt := fmt.Sprintf(`You are an intelligent fitness assistant.

User Profile:
- Fitness Level: %s
- Goals: %s
- Preferences: %s

Schedule Context:
- Current Date: %s
- Available Slots: %s
- Missed Workouts This Week: %d
- Last Workout: %s

Task:
1. Generate a workout schedule for the upcoming slots.
2. If they missed workouts, ADJUST the intensity or frequency to get them back on track without overwhelming them.
3. Decide if a slot should be a "book_class" (if it fits preferences like Yoga/Spin), "set_reminder" (for runs/gym), or "self_guided".
4. Provide a rationale for the adjustment.`,
		profile.FitnessLevel, joinList(profile.Goals), joinList(profile.Preferences),
		sc.CurrentDate, orDefault(joinList(sc.AvailableSlots), "Flexible"),
		sc.MissedWorkouts, orDefault(sc.LastWorkoutDate, "Unknown"))
	prompt = strings.Join([]string{prompt, scheduledWorkoutContract}, "\n\n")

	var plan model.ScheduledWorkout
	if err := e.client.GenerateObject(ctx, prompt, &plan); err != nil {
		e.logger.Error("engine: scheduled workout generation failed", "error", err)
		return model.ScheduledWorkout{
			PlanName:       "Recovery Logic Failed",
			Rationale:      "Could not generate custom plan.",
			Schedule:       []model.ScheduleEntry{},
			AdjustmentNote: "Error occurred.",
		}
	}
	return plan
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
