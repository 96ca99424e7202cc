package model

// RecommendationType selects which wellness plan generator to run.
type RecommendationType string

const (
	RecommendationWorkout    RecommendationType = "workout"
	RecommendationMeditation RecommendationType = "meditation"
	RecommendationSleep      RecommendationType = "sleep"
)

// ValidRecommendationType reports whether t names a known generator.
func ValidRecommendationType(t RecommendationType) bool {
	switch t {
	case RecommendationWorkout, RecommendationMeditation, RecommendationSleep:
		return true
	}
	return false
}

// Difficulty grades a recommendation's intensity.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

// Recommendation is the structured wellness plan returned by the workout,
// meditation and sleep generators.
type Recommendation struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Duration          int        `json:"duration"` // minutes
	Difficulty        Difficulty `json:"difficulty"`
	Instructions      []string   `json:"instructions"`
	SafetyWarnings    []string   `json:"safety_warnings"`
	EstimatedCalories int        `json:"estimated_calories,omitempty"`
	Modifications     []string   `json:"modifications"`
}

// Meal is one entry in a generated meal plan.
type Meal struct {
	Name               string   `json:"name"`
	Ingredients        []string `json:"ingredients"`
	Instructions       string   `json:"instructions"`
	Calories           int      `json:"calories"`
	MissingIngredients []string `json:"missing_ingredients"`
}

// MealPlan is the structured output of the nutrition generator.
type MealPlan struct {
	PlanName           string   `json:"plan_name"`
	Meals              []Meal   `json:"meals"`
	GroceryList        []string `json:"grocery_list"`
	NutritionalSummary string   `json:"nutritional_summary"`
}

// Screening is one recommended preventive screening.
type Screening struct {
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	Urgency   string `json:"urgency"` // routine, soon, urgent
	Frequency string `json:"frequency"`
}

// MedicalActionPlan is the structured output of the medical generator.
type MedicalActionPlan struct {
	ScreeningsNeeded   []Screening `json:"screenings_needed"`
	SymptomAnalysis    string      `json:"symptom_analysis"`
	SuggestedAction    string      `json:"suggested_action"`
	QuestionsForDoctor []string    `json:"questions_for_doctor"`
	FollowUpRequired   bool        `json:"follow_up_required"`
}

// MindfulnessIntervention is the structured output of the mindfulness
// generator: a micro-intervention matched to the detected stress state.
type MindfulnessIntervention struct {
	DetectedStressState string   `json:"detected_stress_state"` // relaxed, focused, stressed, overwhelmed
	InterventionType    string   `json:"intervention_type"`     // none, breathing, stretch, walk, music
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Steps               []string `json:"steps,omitempty"`
	DurationSeconds     int      `json:"duration_seconds"`
	AudioPrompt         string   `json:"audio_prompt"`
}

// ScheduleEntry is one slot in a generated workout schedule.
type ScheduleEntry struct {
	Day           string `json:"day"`
	Time          string `json:"time"`
	Activity      string `json:"activity"`
	Duration      int    `json:"duration"`
	BookingAction string `json:"booking_action"` // book_class, set_reminder, self_guided
	Location      string `json:"location,omitempty"`
}

// ScheduledWorkout is the structured output of the exercise scheduler.
type ScheduledWorkout struct {
	PlanName       string          `json:"plan_name"`
	Rationale      string          `json:"rationale"`
	Schedule       []ScheduleEntry `json:"schedule"`
	AdjustmentNote string          `json:"adjustment_note,omitempty"`
}
