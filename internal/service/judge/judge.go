// Package judge scores wellness recommendations with an LLM acting as the
// evaluator. Each dimension (safety, personalization, feasibility,
// compliance) has its own rubric prompt; verdicts are combined by the
// aggregation helpers in aggregate.go.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wellspring-ai/wellspring/internal/llm"
	"github.com/wellspring-ai/wellspring/internal/model"
)

// Judge evaluates recommendation text against per-dimension rubrics.
type Judge struct {
	client llm.Client
	logger *slog.Logger
}

// New creates a judge backed by the given model client.
func New(client llm.Client, logger *slog.Logger) *Judge {
	return &Judge{client: client, logger: logger}
}

// responseContract tells the model the exact JSON shape to return. Every
// dimension uses the same shape; the rubric changes what the model focuses
// on, not what it reports.
const responseContract = `Respond with a single JSON object with exactly these fields:
{
  "safety_score": <number 0-100, dangerous advice and medical accuracy>,
  "personalization_score": <number 0-100, how well tailored to the user profile>,
  "feasibility_score": <number 0-100, practical and achievable>,
  "compliance_issues": [<detected compliance issues such as PII or medical claims>],
  "has_pii": <boolean, whether PII was detected>,
  "reasoning": <string, detailed reasoning for the scores>
}`

// Evaluate scores one recommendation against one dimension's rubric.
//
// It never returns an error: when the model call or its output fails, the
// verdict degrades to all-zero scores with a "Evaluation failed" compliance
// issue, so a judge outage cannot fail the request that asked for scoring.
func (j *Judge) Evaluate(ctx context.Context, recommendation string, profile model.UserProfile, dim model.Dimension) model.EvaluationResult {
	prompt := rubricPrompt(dim, recommendation, profile)

	var result model.EvaluationResult
	if err := j.client.GenerateObject(ctx, prompt, &result); err != nil {
		j.logger.Error("judge: evaluation failed", "dimension", dim, "error", err)
		return fallbackResult()
	}

	result.SafetyScore = clampScore(result.SafetyScore)
	result.PersonalizationScore = clampScore(result.PersonalizationScore)
	result.FeasibilityScore = clampScore(result.FeasibilityScore)
	if result.ComplianceIssues == nil {
		result.ComplianceIssues = []string{}
	}
	return result
}

// EvaluateAll runs one Evaluate per dimension concurrently and returns the
// verdicts keyed by dimension. Individual failures degrade per Evaluate's
// contract, so the map always has one entry per requested dimension.
func (j *Judge) EvaluateAll(ctx context.Context, recommendation string, profile model.UserProfile, dims []model.Dimension) map[model.Dimension]model.EvaluationResult {
	results := make([]model.EvaluationResult, len(dims))

	var wg sync.WaitGroup
	for i, dim := range dims {
		wg.Add(1)
		go func(i int, dim model.Dimension) {
			defer wg.Done()
			results[i] = j.Evaluate(ctx, recommendation, profile, dim)
		}(i, dim)
	}
	wg.Wait()

	out := make(map[model.Dimension]model.EvaluationResult, len(dims))
	for i, dim := range dims {
		out[dim] = results[i]
	}
	return out
}

func rubricPrompt(dim model.Dimension, recommendation string, profile model.UserProfile) string {
	profileJSON := profileJSON(profile)

	var rubric string
	switch dim {
	case model.DimensionSafety:
		rubric = fmt.Sprintf(`You are a health and safety expert. Evaluate this wellness recommendation for medical accuracy and safety.

User Profile: %s
Recommendation: %s

Check for:
1. Dangerous advice that could harm the user
2. Medical inaccuracies
3. Inappropriate recommendations for the user's conditions
4. Any red flags`, profileJSON, recommendation)

	case model.DimensionPersonalization:
		rubric = fmt.Sprintf(`You are a wellness coach. Evaluate how well this recommendation is personalized to the user's profile.

User Profile: %s
Recommendation: %s

Check for:
1. How specific is it to this user's fitness level?
2. How well does it match their stated goals?
3. How much does it account for their health conditions?
4. Is it generic or truly personalized?`, profileJSON, recommendation)

	case model.DimensionFeasibility:
		rubric = fmt.Sprintf(`You are a fitness expert. Evaluate if this recommendation is practically achievable.

User Profile: %s
Recommendation: %s

Check for:
1. Is this realistically doable for someone at this fitness level?
2. Can they do this without special equipment?
3. Is the time commitment realistic?
4. Are there any logistical barriers?`, profileJSON, recommendation)

	case model.DimensionCompliance:
		rubric = fmt.Sprintf(`You are a compliance expert for health apps. Evaluate this recommendation for compliance issues.

User Profile: %s
Recommendation: %s

Check for:
1. Personal Identifiable Information (PII) exposed
2. Unsubstantiated medical claims
3. Violations of health regulations
4. Privacy or HIPAA concerns`, profileJSON, recommendation)

	default:
		rubric = fmt.Sprintf(`Evaluate this wellness recommendation.

User Profile: %s
Recommendation: %s`, profileJSON, recommendation)
	}

	return strings.Join([]string{rubric, responseContract}, "\n\n")
}

func profileJSON(profile model.UserProfile) string {
	b, err := json.Marshal(profile)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func fallbackResult() model.EvaluationResult {
	return model.EvaluationResult{
		ComplianceIssues: []string{"Evaluation failed"},
		Reasoning:        "Evaluation encountered an error",
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
