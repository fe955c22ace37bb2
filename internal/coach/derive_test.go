package coach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 50.0, ProgressPercent(100, 80, 90))
	assert.Equal(t, 0.0, ProgressPercent(80, 80, 75), "no distance to cover")
	assert.Equal(t, 100.0, ProgressPercent(100, 80, 80))
	assert.Equal(t, -25.0, ProgressPercent(100, 80, 105))
	assert.Equal(t, 50.0, ProgressPercent(60, 70, 65), "weight gain goals")
}

func TestDeriveMetrics(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	plan := model.Plan{
		ID:       "plan-1",
		PlanType: model.PlanTypeWorkout,
		Content: model.WeekPlan{Days: []model.PlanDay{
			{Day: "Monday"}, {Day: "Tuesday", Rest: true}, {Day: "Wednesday"}, {Day: "Thursday", Rest: true},
			{Day: "Friday"}, {Day: "Saturday"}, {Day: "Sunday", Rest: true},
		}},
	}
	b := &model.ContextBundle{
		Goals: &model.Goals{StartingWeight: 90, GoalWeight: 80},
		Logs: model.Logs{
			Weights: []model.WeightLog{
				{Weight: 86.4, Date: "2024-03-15"},
				{Weight: 87.0, Date: "2024-03-12"},
				{Weight: 87.5, Date: "2024-03-09"},
				{Weight: 89.0, Date: "2024-03-01"},
			},
			Meals: []model.MealLog{
				{Calories: 600, Date: "2024-03-15"},
				{Calories: 900, Date: "2024-03-15"},
				{Calories: 1700, Date: "2024-03-14"},
				{Calories: 3000, Date: "2024-03-01"},
			},
		},
		ActivePlans: []model.Plan{plan},
		WorkoutSessions: []model.WorkoutSession{
			{PlanID: "plan-1", Completed: true},
			{PlanID: "plan-1", Completed: false},
			{PlanID: "plan-1", Completed: true},
			{PlanID: "other", Completed: true},
		},
	}

	m := deriveMetrics(b, now)
	assert.Equal(t, 86.4, m.CurrentWeight)
	assert.Equal(t, 3.6, m.WeightLost)
	assert.Equal(t, 36.0, m.GoalProgressPercent)
	assert.Equal(t, -1.1, m.WeightTrend7Days)
	assert.Equal(t, 1600.0, m.AvgDailyCalories7Days, "averaged over distinct logged days")
	assert.Equal(t, 50.0, m.WorkoutCompletionRate)
}

func TestDeriveMetrics_Empty(t *testing.T) {
	m := deriveMetrics(&model.ContextBundle{}, time.Now())
	assert.Equal(t, model.ContextMetrics{}, m)
}

func TestDeriveMetrics_FallsBackToProfileWeight(t *testing.T) {
	b := &model.ContextBundle{FitnessProfile: &model.FitnessProfile{CurrentWeight: 72}}
	m := deriveMetrics(b, time.Now())
	assert.Equal(t, 72.0, m.CurrentWeight)
	assert.Zero(t, m.WeightLost)
}

func TestCompletionRateIsCapped(t *testing.T) {
	plans := []model.Plan{{ID: "p", PlanType: model.PlanTypeWorkout, Content: model.WeekPlan{Days: []model.PlanDay{{Day: "Monday"}}}}}
	sessions := []model.WorkoutSession{{PlanID: "p", Completed: true}, {PlanID: "p", Completed: true}}
	assert.Equal(t, 100.0, completionRate(plans, sessions))
	assert.Zero(t, completionRate(nil, sessions))
}
