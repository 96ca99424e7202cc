package model

import "time"

// MaxVariantCount bounds experiment fan-out: each variant costs one
// generation call plus three judge calls.
const MaxVariantCount = 10

// APIError is the error response body for all non-2xx responses.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RecommendRequest is the request body for POST /v1/recommend.
type RecommendRequest struct {
	UserProfile        UserProfile        `json:"userProfile"`
	RecommendationType RecommendationType `json:"recommendationType"`
	// EvaluateResult controls whether the judge runs. Defaults to true
	// when omitted.
	EvaluateResult *bool  `json:"evaluateResult,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// TraceSummary is the trace block attached to a recommendation response.
type TraceSummary struct {
	RunID           string `json:"run_id"`
	SpansCount      int    `json:"spans_count"`
	TotalDurationMS int64  `json:"total_duration_ms"`
}

// RecommendResponse is the response for POST /v1/recommend. Evaluation is
// explicitly null when evaluation was skipped, never silently absent.
type RecommendResponse struct {
	Success        bool              `json:"success"`
	RunID          string            `json:"runId"`
	Recommendation Recommendation    `json:"recommendation"`
	Evaluation     *EvaluationBundle `json:"evaluation"`
	Trace          TraceSummary      `json:"trace"`
}

// ExperimentRequest is the request body for POST /v1/experiment.
type ExperimentRequest struct {
	UserProfile        UserProfile        `json:"userProfile"`
	RecommendationType RecommendationType `json:"recommendationType"`
	VariantCount       int                `json:"variantCount,omitempty"` // defaults to 3
	ExperimentName     string             `json:"experimentName,omitempty"`
	UserID             string             `json:"userId,omitempty"`
}

// VariantScores holds the representative per-dimension scores for one
// variant: safety from the safety evaluation, and so on.
type VariantScores struct {
	Safety          float64 `json:"safety"`
	Personalization float64 `json:"personalization"`
	Feasibility     float64 `json:"feasibility"`
}

// Combined returns the mean of the three dimension scores.
func (s VariantScores) Combined() float64 {
	return (s.Safety + s.Personalization + s.Feasibility) / 3
}

// EvaluatedVariant is one experiment variant with its evaluation summary.
// PIIDetected comes from the safety dimension's has_pii flag; the
// experiment path does not run the compliance dimension.
type EvaluatedVariant struct {
	VariantIndex int             `json:"variant_index"`
	Title        string          `json:"title"`
	Duration     int             `json:"duration"`
	Difficulty   Difficulty      `json:"difficulty"`
	Scores       VariantScores   `json:"scores"`
	Aggregated   *AggregateScore `json:"aggregated"`
	PIIDetected  bool            `json:"pii_detected"`
}

// ExperimentWinner identifies the variant with the highest combined score.
type ExperimentWinner struct {
	VariantIndex  int    `json:"variant_index"`
	Title         string `json:"title"`
	CombinedScore int    `json:"combined_score"`
}

// ExperimentTraceData summarizes the trace-store side of an experiment.
type ExperimentTraceData struct {
	ExperimentID string    `json:"experiment_id"`
	TotalRuns    int       `json:"total_runs"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExperimentResponse is the response for POST /v1/experiment.
type ExperimentResponse struct {
	Success           bool                `json:"success"`
	ExperimentID      string              `json:"experimentId"`
	ExperimentName    string              `json:"experiment_name"`
	VariantsEvaluated int                 `json:"variants_evaluated"`
	Winner            ExperimentWinner    `json:"winner"`
	AllVariants       []EvaluatedVariant  `json:"all_variants"`
	TraceData         ExperimentTraceData `json:"trace_data"`
}

// NutritionRequest is the request body for POST /v1/nutrition.
type NutritionRequest struct {
	UserProfile      UserProfile      `json:"userProfile"`
	NutritionContext NutritionContext `json:"nutritionContext"`
	UserID           string           `json:"userId,omitempty"`
}

// MedicalRequest is the request body for POST /v1/medical.
type MedicalRequest struct {
	UserProfile    UserProfile    `json:"userProfile"`
	MedicalContext MedicalContext `json:"medicalContext"`
	UserID         string         `json:"userId,omitempty"`
}

// MindfulnessRequest is the request body for POST /v1/mindfulness.
type MindfulnessRequest struct {
	UserProfile   UserProfile   `json:"userProfile"`
	StressContext StressContext `json:"stressContext"`
	UserID        string        `json:"userId,omitempty"`
}

// ExerciseRequest is the request body for POST /v1/exercise.
type ExerciseRequest struct {
	UserProfile     UserProfile     `json:"userProfile"`
	ScheduleContext ScheduleContext `json:"scheduleContext"`
	UserID          string          `json:"userId,omitempty"`
}

// PlanResponse is the response for the single-span domain routes
// (nutrition, medical, mindfulness, exercise). Result is the generator's
// structured output.
type PlanResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId"`
	Result  any    `json:"result"`
}

// DashboardMetrics is the aggregate block of the observability dashboard.
type DashboardMetrics struct {
	TotalRuns        int     `json:"total_runs"`
	CompletedRuns    int     `json:"completed_runs"`
	FailedRuns       int     `json:"failed_runs"`
	AvgQualityScore  float64 `json:"avg_quality_score"`
	TotalExperiments int     `json:"total_experiments"`
	TotalSpans       int     `json:"total_spans"`
}

// RunSummary is a dashboard row for one recent run.
type RunSummary struct {
	ID           string    `json:"id"`
	Status       RunStatus `json:"status"`
	Type         string    `json:"type"`
	QualityScore float64   `json:"quality_score"`
	DurationMS   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// ExperimentSummary is a dashboard row for one recent experiment.
type ExperimentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RunsCount int       `json:"runs_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Dashboard is the response for GET /v1/observability with no action.
type Dashboard struct {
	Success           bool                `json:"success"`
	Metrics           DashboardMetrics    `json:"metrics"`
	RecentRuns        []RunSummary        `json:"recentRuns"`
	RecentExperiments []ExperimentSummary `json:"recentExperiments"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Store         string `json:"store"`   // history store: connected, disconnected, disabled
	RunsTracked   int    `json:"runs_tracked"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
