package model

import (
	"time"
)

// Logs holds the last 30 days of logs partitioned by kind, newest first.
type Logs struct {
	Weights    []WeightLog   `json:"weights"`
	Meals      []MealLog     `json:"meals"`
	Activities []ActivityLog `json:"activities"`
	Moods      []MoodLog     `json:"moods"`
}

// ContextMetrics are derived from the bundle at assembly time.
type ContextMetrics struct {
	CurrentWeight         float64 `json:"current_weight"`
	WeightLost            float64 `json:"weight_lost"`
	GoalProgressPercent   float64 `json:"goal_progress_percent"`
	WeightTrend7Days      float64 `json:"weight_trend_7_days"`
	AvgDailyCalories7Days float64 `json:"avg_daily_calories_7_days"`
	WorkoutCompletionRate float64 `json:"workout_completion_rate"`
}

// ContextBundle is the request-scoped aggregate of a user's fitness state.
type ContextBundle struct {
	Profile         Profile          `json:"profile"`
	FitnessProfile  *FitnessProfile  `json:"fitness_profile,omitempty"`
	Goals           *Goals           `json:"goals,omitempty"`
	Logs            Logs             `json:"logs"`
	ActivePlans     []Plan           `json:"active_plans"`
	WorkoutSessions []WorkoutSession `json:"workout_sessions"`
	RecentMessages  []Message        `json:"recent_messages"`
	Metrics         ContextMetrics   `json:"metrics"`
	AssembledAt     time.Time        `json:"assembled_at"`
}

// ContextSnapshot is the cached per-user summary refreshed by the worker.
type ContextSnapshot struct {
	UserID    string         `json:"user_id"`
	Summary   string         `json:"summary"`
	Data      *ContextBundle `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}
