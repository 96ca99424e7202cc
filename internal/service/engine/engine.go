// Package engine holds the LLM-backed plan generators. Each generator
// builds a role-specific prompt from the user profile, asks the model for a
// structured object, and degrades to a safe static fallback when the model
// call fails. Generation never returns an error to callers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wellspring-ai/wellspring/internal/llm"
	"github.com/wellspring-ai/wellspring/internal/model"
)

// Engine generates wellness plans through an LLM client.
type Engine struct {
	client llm.Client
	logger *slog.Logger
}

// New creates an engine backed by the given model client.
func New(client llm.Client, logger *slog.Logger) *Engine {
	return &Engine{client: client, logger: logger}
}

const recommendationContract = `Respond with a single JSON object with exactly these fields:
{
  "title": <string>,
  "description": <string>,
  "duration": <number, minutes>,
  "difficulty": <"easy" | "moderate" | "hard">,
  "instructions": [<step-by-step instructions>],
  "safety_warnings": [<safety warnings>],
  "estimated_calories": <number, optional>,
  "modifications": [<alternative modifications for different levels>]
}`

// GenerateRecommendation produces a workout, meditation or sleep plan for
// the profile. Unknown types fall back to the workout prompt; callers
// validate the type at the API boundary.
func (e *Engine) GenerateRecommendation(ctx context.Context, profile model.UserProfile, typ model.RecommendationType) model.Recommendation {
	var prompt string
	switch typ {
	case model.RecommendationMeditation:
		prompt = meditationPrompt(profile)
	case model.RecommendationSleep:
		prompt = sleepPrompt(profile)
	default:
		prompt = workoutPrompt(profile)
	}
	prompt = strings.Join([]string{prompt, recommendationContract}, "\n\n")

	var rec model.Recommendation
	if err := e.client.GenerateObject(ctx, prompt, &rec); err != nil {
		e.logger.Error("engine: recommendation generation failed", "type", typ, "error", err)
		return fallbackRecommendation()
	}
	return rec
}

// GenerateVariants produces count recommendations for A/B comparison. Each
// variant narrows the goal list by rotating its starting offset, so the
// model emphasizes a different goal per variant. Variants are generated
// sequentially; the judge fan-out downstream is where concurrency pays.
func (e *Engine) GenerateVariants(ctx context.Context, profile model.UserProfile, typ model.RecommendationType, count int) []model.Recommendation {
	variants := make([]model.Recommendation, 0, count)
	for i := 0; i < count; i++ {
		variants = append(variants, e.GenerateRecommendation(ctx, variantProfile(profile, i), typ))
	}
	return variants
}

// variantProfile returns the profile with its goals rotated for variant i.
// With goals [a b c], variant 0 keeps all three, variant 1 gets [b c],
// variant 2 gets [c], variant 3 wraps back to all three.
func variantProfile(profile model.UserProfile, i int) model.UserProfile {
	if len(profile.Goals) == 0 {
		return profile
	}
	out := profile
	out.Goals = profile.Goals[i%len(profile.Goals):]
	return out
}

func workoutPrompt(p model.UserProfile) string {
	return fmt.Sprintf(`You are an expert fitness coach. Generate a personalized workout plan based on this user profile:

Age: %d
Fitness Level: %s
Goals: %s
Available Time: %d minutes per day
Health Conditions: %s
Preferences: %s

Create a specific, actionable workout that:
1. Matches their fitness level
2. Fits within their available time
3. Accounts for any health conditions
4. Works toward their stated goals
5. Includes proper form cues and modifications`,
		p.Age, p.FitnessLevel, joinList(p.Goals), p.AvailableTime, joinOrNone(p.HealthConditions), joinList(p.Preferences))
}

func meditationPrompt(p model.UserProfile) string {
	return fmt.Sprintf(`You are a meditation and mindfulness expert. Generate a personalized meditation guide based on this user profile:

Age: %d
Stress Level: %d/10
Goals: %s
Available Time: %d minutes
Preferences: %s

Create a specific meditation guide that:
1. Matches their stress level and needs
2. Fits within their available time
3. Uses techniques suited to their preferences
4. Includes step-by-step instructions
5. Accounts for beginner-friendly alternatives`,
		p.Age, p.StressLevel, joinList(p.Goals), p.AvailableTime, joinList(p.Preferences))
}

func sleepPrompt(p model.UserProfile) string {
	return fmt.Sprintf(`You are a sleep specialist. Generate a personalized sleep optimization plan based on this user profile:

Age: %d
Current Sleep Quality: %d/10
Stress Level: %d/10
Goals: %s
Health Conditions: %s
Preferences: %s

Create a specific sleep improvement plan that:
1. Targets their specific sleep issues
2. Includes actionable evening routines
3. Accounts for their health conditions
4. Considers their lifestyle constraints
5. Provides evidence-based recommendations`,
		p.Age, p.SleepQuality, p.StressLevel, joinList(p.Goals), joinOrNone(p.HealthConditions), joinList(p.Preferences))
}

func fallbackRecommendation() model.Recommendation {
	return model.Recommendation{
		Title:          "Default Wellness Recommendation",
		Description:    "A balanced approach to wellness",
		Duration:       30,
		Difficulty:     model.DifficultyModerate,
		Instructions:   []string{"Start slowly", "Listen to your body", "Consistency is key"},
		SafetyWarnings: []string{"Consult healthcare provider if you have medical conditions"},
		Modifications:  []string{"Low intensity version available", "Shorter duration option available"},
	}
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
