package judge

import (
	"math"

	"github.com/wellspring-ai/wellspring/internal/model"
)

// Aggregate summarizes a set of verdicts: rounded mean per score dimension,
// PII detection as a whole percent, and the compliance issue list both
// counted with duplicates and deduplicated in first-seen order.
//
// Returns nil for an empty input; there is no meaningful zero summary.
func Aggregate(evals []model.EvaluationResult) *model.AggregateScore {
	if len(evals) == 0 {
		return nil
	}

	var safetySum, personalizationSum, feasibilitySum float64
	piiCount := 0
	total := 0
	var issues []string

	for _, e := range evals {
		safetySum += e.SafetyScore
		personalizationSum += e.PersonalizationScore
		feasibilitySum += e.FeasibilityScore
		if e.HasPII {
			piiCount++
		}
		issues = append(issues, e.ComplianceIssues...)
	}
	total = len(evals)

	return &model.AggregateScore{
		AvgSafetyScore:          roundMean(safetySum, total),
		AvgPersonalizationScore: roundMean(personalizationSum, total),
		AvgFeasibilityScore:     roundMean(feasibilitySum, total),
		PIIDetectionRate:        int(math.Round(float64(piiCount) / float64(total) * 100)),
		TotalComplianceIssues:   len(issues),
		UniqueIssues:            dedupe(issues),
	}
}

func roundMean(sum float64, n int) int {
	return int(math.Round(sum / float64(n)))
}

func dedupe(issues []string) []string {
	seen := make(map[string]bool, len(issues))
	unique := make([]string, 0, len(issues))
	for _, issue := range issues {
		if seen[issue] {
			continue
		}
		seen[issue] = true
		unique = append(unique, issue)
	}
	return unique
}
