package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by every log and plan.
const DateLayout = "2006-01-02"

// Profile is the stored user profile.
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FitnessProfile holds body and training background.
type FitnessProfile struct {
	UserID          string    `json:"user_id"`
	Age             int       `json:"age,omitempty"`
	Sex             string    `json:"sex,omitempty"`
	HeightCm        float64   `json:"height_cm,omitempty"`
	CurrentWeight   float64   `json:"current_weight,omitempty"`
	ActivityLevel   string    `json:"activity_level,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	Equipment       []string  `json:"equipment,omitempty"`
	Injuries        string    `json:"injuries,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Benchmark is a tracked strength benchmark.
type Benchmark struct {
	Exercise      string  `json:"exercise"`
	CurrentWeight float64 `json:"current_weight,omitempty"`
	CurrentReps   int     `json:"current_reps,omitempty"`
	TargetWeight  float64 `json:"target_weight,omitempty"`
	TargetDate    string  `json:"target_date,omitempty"`
}

// Goals is the single goals row of a user.
type Goals struct {
	UserID         string      `json:"user_id"`
	GoalType       string      `json:"goal_type,omitempty"`
	StartingWeight float64     `json:"starting_weight,omitempty"`
	GoalWeight     float64     `json:"goal_weight,omitempty"`
	TargetDate     string      `json:"target_date,omitempty"`
	WeeklyWorkouts int         `json:"weekly_workouts,omitempty"`
	DailyCalories  int         `json:"daily_calories,omitempty"`
	DailyProtein   int         `json:"daily_protein,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Benchmarks     []Benchmark `json:"benchmarks,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GoalsUpdate carries the goal fields supplied by an ADJUST_GOALS action.
// Nil fields are left untouched.
type GoalsUpdate struct {
	GoalType       *string
	StartingWeight *float64
	GoalWeight     *float64
	TargetDate     *string
	WeeklyWorkouts *int
	DailyCalories  *int
	DailyProtein   *int
	Notes          *string
}

// Empty reports whether no field is supplied.
func (u GoalsUpdate) Empty() bool {
	return u.GoalType == nil && u.StartingWeight == nil && u.GoalWeight == nil && u.TargetDate == nil &&
		u.WeeklyWorkouts == nil && u.DailyCalories == nil && u.DailyProtein == nil && u.Notes == nil
}

// WeightLog is a body weight sample.
type WeightLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Weight    float64   `json:"weight"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// MealLog is a logged meal.
type MealLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MealType    string    `json:"meal_type"`
	Description string    `json:"description"`
	Calories    float64   `json:"calories,omitempty"`
	Protein     float64   `json:"protein,omitempty"`
	Carbs       float64   `json:"carbs,omitempty"`
	Fat         float64   `json:"fat,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reps is a rep count or range such as "8-10". JSON numbers decode to their decimal form.
type Reps string

// UnmarshalJSON accepts a string or a number.
func (r *Reps) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Reps(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps must be a string or number: %w", err)
	}
	*r = Reps(n.String())
	return nil
}

// Exercise is a structured exercise entry.
type Exercise struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets,omitempty"`
	Reps   Reps    `json:"reps,omitempty"`
	Weight float64 `json:"weight,omitempty"`
	Notes  string  `json:"notes,omitempty"`
}

// ActivityLog is a logged workout or activity.
type ActivityLog struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	WorkoutType     string     `json:"workout_type"`
	Description     string     `json:"description"`
	Exercises       []Exercise `json:"exercises,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Date            string     `json:"date"`
	CreatedAt       time.Time  `json:"created_at"`
}

// MoodLog is a logged mood entry.
type MoodLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      string    `json:"mood"`
	Energy    int       `json:"energy,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanTypeWorkout is the plan type produced by plan generation.
const PlanTypeWorkout = "workout"

// PlanDay is one day of a weekly plan.
type PlanDay struct {
	Day       string     `json:"day"`
	Date      string     `json:"date,omitempty"`
	Focus     string     `json:"focus"`
	Rest      bool       `json:"rest"`
	Exercises []Exercise `json:"exercises,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// WeekPlan is the structured content of a workout plan.
type WeekPlan struct {
	Summary string    `json:"summary,omitempty"`
	Days    []PlanDay `json:"days"`
}

// WorkoutDays counts the non-rest days of the week.
func (w WeekPlan) WorkoutDays() int {
	n := 0
	for _, d := range w.Days {
		if !d.Rest {
			n++
		}
	}
	return n
}

// Plan is a stored plan row keyed by (user, type, week number).
type Plan struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PlanType   string    `json:"plan_type"`
	WeekNumber int       `json:"week_number"`
	Year       int       `json:"year"`
	StartDate  string    `json:"start_date"`
	Content    WeekPlan  `json:"content"`
	Active     bool      `json:"active"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionExercise is an exercise performed in a workout session.
type SessionExercise struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets,omitempty"`
	Reps   int     `json:"reps,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// WorkoutSession is a tracked session against a plan day.
type WorkoutSession struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	PlanID    string            `json:"plan_id,omitempty"`
	Name      string            `json:"name"`
	Date      string            `json:"date"`
	Completed bool              `json:"completed"`
	Exercises []SessionExercise `json:"exercises,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// LogActivityRequest is the body of POST /logs/activity.
type LogActivityRequest struct {
	WorkoutType     string     `json:"workout_type"`
	Description     string     `json:"description"`
	Exercises       []Exercise `json:"exercises,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Date            string     `json:"date,omitempty"`
}

// LogMealRequest is the body of POST /logs/meal.
type LogMealRequest struct {
	MealType    string  `json:"meal_type"`
	Description string  `json:"description"`
	Calories    float64 `json:"calories,omitempty"`
	Protein     float64 `json:"protein,omitempty"`
	Carbs       float64 `json:"carbs,omitempty"`
	Fat         float64 `json:"fat,omitempty"`
	Date        string  `json:"date,omitempty"`
}

// LogWeightRequest is the body of POST /logs/weight.
type LogWeightRequest struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date,omitempty"`
}

// GeneratePlanRequest is the body of POST /plans/generate.
type GeneratePlanRequest struct {
	StartDate   string `json:"start_date,omitempty"`
	Focus       string `json:"focus,omitempty"`
	DaysPerWeek int    `json:"days_per_week,omitempty"`
}
