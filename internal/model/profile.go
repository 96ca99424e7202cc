package model

// FitnessLevel is the user's self-assessed training experience.
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// UserProfile is the structured profile every generation and evaluation call
// receives. Partial profiles are allowed; zero values mean "not provided".
type UserProfile struct {
	Age              int          `json:"age,omitempty"`
	FitnessLevel     FitnessLevel `json:"fitness_level,omitempty"`
	Goals            []string     `json:"goals,omitempty"`
	AvailableTime    int          `json:"available_time,omitempty"` // minutes per day
	HealthConditions []string     `json:"health_conditions,omitempty"`
	StressLevel      int          `json:"stress_level,omitempty"`  // 1-10
	SleepQuality     int          `json:"sleep_quality,omitempty"` // 1-10
	Preferences      []string     `json:"preferences,omitempty"`
}

// NutritionContext carries the meal-planning inputs alongside the profile.
type NutritionContext struct {
	FridgeContents      []string `json:"fridge_contents"`
	MealsToPlan         int      `json:"meals_to_plan"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
}

// MedicalContext carries the preventive-care inputs alongside the profile.
type MedicalContext struct {
	SymptomLog      []string `json:"symptom_log"`
	LastCheckupDate string   `json:"last_checkup_date,omitempty"`
}

// StressContext carries the real-time signals used to pick a mindfulness
// intervention.
type StressContext struct {
	CalendarDensity      string `json:"calendar_density"`       // high, medium, low
	TypingSpeed          string `json:"typing_speed"`           // normal, fast, erratic
	ConnectedDeviceScore int    `json:"connected_device_score"` // readiness 0-100, lower is worse
	CurrentTime          string `json:"current_time"`
}

// ScheduleContext carries the calendar inputs for workout scheduling.
type ScheduleContext struct {
	CurrentDate     string   `json:"current_date"`
	AvailableSlots  []string `json:"available_slots"`
	MissedWorkouts  int      `json:"missed_workouts"`
	LastWorkoutDate string   `json:"last_workout_date,omitempty"`
}
