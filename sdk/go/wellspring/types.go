package wellspring

import "time"

// UserProfile describes the person requesting a recommendation. Zero values
// mean "not provided"; partial profiles are accepted.
type UserProfile struct {
	Age              int      `json:"age,omitempty"`
	FitnessLevel     string   `json:"fitness_level,omitempty"` // beginner, intermediate, advanced
	Goals            []string `json:"goals,omitempty"`
	HealthConditions []string `json:"health_conditions,omitempty"`
	AvailableTime    int      `json:"available_time,omitempty"` // minutes per day
	StressLevel      int      `json:"stress_level,omitempty"`   // 1-10
	SleepQuality     int      `json:"sleep_quality,omitempty"`  // 1-10
	Preferences      []string `json:"preferences,omitempty"`
}

// RecommendRequest is the request body for Recommend.
type RecommendRequest struct {
	UserProfile        UserProfile `json:"userProfile"`
	RecommendationType string      `json:"recommendationType"` // workout, meditation, sleep
	// EvaluateResult controls whether the server runs the LLM judge.
	// Defaults to true when nil.
	EvaluateResult *bool  `json:"evaluateResult,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// Recommendation is one generated wellness plan.
type Recommendation struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Duration          int      `json:"duration"` // minutes
	Difficulty        string   `json:"difficulty"`
	Instructions      []string `json:"instructions"`
	SafetyWarnings    []string `json:"safety_warnings"`
	EstimatedCalories int      `json:"estimated_calories,omitempty"`
	Modifications     []string `json:"modifications"`
}

// EvaluationResult is one dimension's verdict from the LLM judge.
type EvaluationResult struct {
	SafetyScore          float64  `json:"safety_score"`
	PersonalizationScore float64  `json:"personalization_score"`
	FeasibilityScore     float64  `json:"feasibility_score"`
	ComplianceIssues     []string `json:"compliance_issues"`
	HasPII               bool     `json:"has_pii"`
	Reasoning            string   `json:"reasoning"`
}

// AggregateScore summarizes the per-dimension verdicts.
type AggregateScore struct {
	AvgSafetyScore          int      `json:"avg_safety_score"`
	AvgPersonalizationScore int      `json:"avg_personalization_score"`
	AvgFeasibilityScore     int      `json:"avg_feasibility_score"`
	PIIDetectionRate        int      `json:"pii_detection_rate"` // percent
	TotalComplianceIssues   int      `json:"total_compliance_issues"`
	UniqueIssues            []string `json:"unique_issues"`
}

// EvaluationBundle carries all verdicts plus the aggregate, keyed by
// dimension (safety, personalization, feasibility, compliance).
type EvaluationBundle struct {
	IndividualEvals map[string]EvaluationResult `json:"individual_evals"`
	Aggregate       *AggregateScore             `json:"aggregate"`
}

// TraceSummary is the trace block attached to a recommendation response.
type TraceSummary struct {
	RunID           string `json:"run_id"`
	SpansCount      int    `json:"spans_count"`
	TotalDurationMS int64  `json:"total_duration_ms"`
}

// RecommendResponse is the response for Recommend.
type RecommendResponse struct {
	Success        bool              `json:"success"`
	RunID          string            `json:"runId"`
	Recommendation Recommendation    `json:"recommendation"`
	Evaluation     *EvaluationBundle `json:"evaluation"`
	Trace          TraceSummary      `json:"trace"`
}

// ExperimentRequest is the request body for Experiment.
type ExperimentRequest struct {
	UserProfile        UserProfile `json:"userProfile"`
	RecommendationType string      `json:"recommendationType"`
	VariantCount       int         `json:"variantCount,omitempty"` // defaults to 3
	ExperimentName     string      `json:"experimentName,omitempty"`
	UserID             string      `json:"userId,omitempty"`
}

// VariantScores holds one variant's representative per-dimension scores.
type VariantScores struct {
	Safety          float64 `json:"safety"`
	Personalization float64 `json:"personalization"`
	Feasibility     float64 `json:"feasibility"`
}

// EvaluatedVariant is one variant with its evaluation summary.
type EvaluatedVariant struct {
	VariantIndex int             `json:"variant_index"`
	Title        string          `json:"title"`
	Duration     int             `json:"duration"`
	Difficulty   string          `json:"difficulty"`
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

// ExperimentResponse is the response for Experiment.
type ExperimentResponse struct {
	Success           bool                `json:"success"`
	ExperimentID      string              `json:"experimentId"`
	ExperimentName    string              `json:"experiment_name"`
	VariantsEvaluated int                 `json:"variants_evaluated"`
	Winner            ExperimentWinner    `json:"winner"`
	AllVariants       []EvaluatedVariant  `json:"all_variants"`
	TraceData         ExperimentTraceData `json:"trace_data"`
}

// NutritionContext carries the meal-planning inputs.
type NutritionContext struct {
	FridgeContents      []string `json:"fridge_contents"`
	MealsToPlan         int      `json:"meals_to_plan"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
}

// NutritionRequest is the request body for NutritionPlan.
type NutritionRequest struct {
	UserProfile      UserProfile      `json:"userProfile"`
	NutritionContext NutritionContext `json:"nutritionContext"`
	UserID           string           `json:"userId,omitempty"`
}

// MedicalContext carries the preventive-care inputs.
type MedicalContext struct {
	SymptomLog      []string `json:"symptom_log"`
	LastCheckupDate string   `json:"last_checkup_date,omitempty"`
}

// MedicalRequest is the request body for MedicalPlan.
type MedicalRequest struct {
	UserProfile    UserProfile    `json:"userProfile"`
	MedicalContext MedicalContext `json:"medicalContext"`
	UserID         string         `json:"userId,omitempty"`
}

// StressContext carries the real-time stress signals used to pick a
// mindfulness intervention.
type StressContext struct {
	CalendarDensity      string `json:"calendar_density"`       // high, medium, low
	TypingSpeed          string `json:"typing_speed"`           // normal, fast, erratic
	ConnectedDeviceScore int    `json:"connected_device_score"` // readiness 0-100
	CurrentTime          string `json:"current_time"`
}

// MindfulnessRequest is the request body for MindfulnessIntervention.
type MindfulnessRequest struct {
	UserProfile   UserProfile   `json:"userProfile"`
	StressContext StressContext `json:"stressContext"`
	UserID        string        `json:"userId,omitempty"`
}

// ScheduleContext carries the calendar inputs for workout scheduling.
type ScheduleContext struct {
	CurrentDate     string   `json:"current_date"`
	AvailableSlots  []string `json:"available_slots"`
	MissedWorkouts  int      `json:"missed_workouts"`
	LastWorkoutDate string   `json:"last_workout_date,omitempty"`
}

// ExerciseRequest is the request body for ExerciseSchedule.
type ExerciseRequest struct {
	UserProfile     UserProfile     `json:"userProfile"`
	ScheduleContext ScheduleContext `json:"scheduleContext"`
	UserID          string          `json:"userId,omitempty"`
}

// PlanResponse is the response for the domain plan endpoints. Result holds
// the generator's structured output; its shape depends on the endpoint.
type PlanResponse struct {
	Success bool           `json:"success"`
	RunID   string         `json:"runId"`
	Result  map[string]any `json:"result"`
}

// Span is one step inside a run.
type Span struct {
	Name      string         `json:"name"`
	StartTime time.Time      `json:"start_time"`
	Input     map[string]any `json:"input"`
	Output    map[string]any `json:"output"`
	Metadata  map[string]any `json:"metadata"`
}

// Run is one traced recommendation flow.
type Run struct {
	ID        string         `json:"id"`
	Metadata  map[string]any `json:"metadata"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Status    string         `json:"status"`
	Spans     []Span         `json:"spans"`
	Result    map[string]any `json:"result,omitempty"`
}

// Experiment is a named comparison of variant runs.
type Experiment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RunIDs      []string  `json:"run_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardMetrics is the aggregate block of the dashboard.
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
	Status       string    `json:"status"`
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

// Dashboard is the aggregate observability payload.
type Dashboard struct {
	Success           bool                `json:"success"`
	Metrics           DashboardMetrics    `json:"metrics"`
	RecentRuns        []RunSummary        `json:"recentRuns"`
	RecentExperiments []ExperimentSummary `json:"recentExperiments"`
}

// StoredEvaluation is the flattened evaluation saved with a recommendation.
type StoredEvaluation struct {
	SafetyScore           int  `json:"safety_score"`
	PersonalizationScore  int  `json:"personalization_score"`
	FeasibilityScore      int  `json:"feasibility_score"`
	ComplianceChecked     bool `json:"compliance_checked"`
	PIIDetected           bool `json:"pii_detected"`
	MedicalClaimsDetected bool `json:"medical_claims_detected"`
}

// StoredRecommendation is one saved history record.
type StoredRecommendation struct {
	ID                 string           `json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UserProfile        UserProfile      `json:"user_profile"`
	RecommendationType string           `json:"recommendation_type"`
	Recommendation     Recommendation   `json:"recommendation"`
	Evaluation         StoredEvaluation `json:"evaluation"`
	RunID              string           `json:"run_id,omitempty"`
	UserID             string           `json:"user_id,omitempty"`
}

// HealthResponse is the payload of Health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Store         string `json:"store"` // connected, disconnected, disabled
	RunsTracked   int    `json:"runs_tracked"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
