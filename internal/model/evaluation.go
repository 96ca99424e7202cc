package model

// Dimension names one rubric the judge scores a recommendation against.
type Dimension string

const (
	DimensionSafety          Dimension = "safety"
	DimensionPersonalization Dimension = "personalization"
	DimensionFeasibility     Dimension = "feasibility"
	DimensionCompliance      Dimension = "compliance"
)

// AllDimensions is the full rubric set used by the single-recommendation
// flow. The experiment flow uses ExperimentDimensions instead.
var AllDimensions = []Dimension{
	DimensionSafety,
	DimensionPersonalization,
	DimensionFeasibility,
	DimensionCompliance,
}

// ExperimentDimensions is the reduced rubric set used when comparing
// variants: compliance is excluded from the experiment path.
var ExperimentDimensions = []Dimension{
	DimensionSafety,
	DimensionPersonalization,
	DimensionFeasibility,
}

// EvaluationResult is one judge verdict for a (recommendation, dimension)
// pair. The judge's response schema populates all three score fields no
// matter which dimension was requested; only Reasoning is guaranteed to be
// about the requested dimension.
//
// All-zero scores together with a "Evaluation failed" compliance issue mean
// "evaluation unavailable", not "recommendation scored zero".
type EvaluationResult struct {
	SafetyScore          float64  `json:"safety_score"`
	PersonalizationScore float64  `json:"personalization_score"`
	FeasibilityScore     float64  `json:"feasibility_score"`
	ComplianceIssues     []string `json:"compliance_issues"`
	HasPII               bool     `json:"has_pii"`
	Reasoning            string   `json:"reasoning"`
}

// AggregateScore summarizes a set of evaluation results. Derived, never
// stored on its own.
type AggregateScore struct {
	AvgSafetyScore          int      `json:"avg_safety_score"`
	AvgPersonalizationScore int      `json:"avg_personalization_score"`
	AvgFeasibilityScore     int      `json:"avg_feasibility_score"`
	PIIDetectionRate        int      `json:"pii_detection_rate"` // percent of inputs with has_pii
	TotalComplianceIssues   int      `json:"total_compliance_issues"`
	UniqueIssues            []string `json:"unique_issues"`
}

// EvaluationBundle pairs the per-dimension verdicts with their aggregate,
// as returned to API callers and recorded on the run.
type EvaluationBundle struct {
	IndividualEvals map[Dimension]EvaluationResult `json:"individual_evals"`
	Aggregate       *AggregateScore                `json:"aggregate"`
}
