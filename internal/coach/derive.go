package coach

import (
	"math"
	"time"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

func deriveMetrics(b *model.ContextBundle, now time.Time) model.ContextMetrics {
	var m model.ContextMetrics

	switch {
	case len(b.Logs.Weights) > 0:
		m.CurrentWeight = b.Logs.Weights[0].Weight
	case b.FitnessProfile != nil:
		m.CurrentWeight = b.FitnessProfile.CurrentWeight
	}

	if g := b.Goals; g != nil && g.StartingWeight > 0 && m.CurrentWeight > 0 {
		m.WeightLost = round1(g.StartingWeight - m.CurrentWeight)
		m.GoalProgressPercent = ProgressPercent(g.StartingWeight, g.GoalWeight, m.CurrentWeight)
	}

	weekAgo := now.AddDate(0, 0, -7).Format(model.DateLayout)
	m.WeightTrend7Days = weightTrend(b.Logs.Weights, weekAgo)
	m.AvgDailyCalories7Days = avgDailyCalories(b.Logs.Meals, weekAgo)
	m.WorkoutCompletionRate = completionRate(b.ActivePlans, b.WorkoutSessions)
	return m
}

// ProgressPercent is the share of the distance from starting to goal weight already
// covered. It is 0 when starting equals goal.
func ProgressPercent(starting, goal, current float64) float64 {
	total := starting - goal
	if total == 0 {
		return 0
	}
	pct := (starting - current) / total * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return round1(pct)
}

// weightTrend is the newest minus the oldest sample since the cutoff.
func weightTrend(newestFirst []model.WeightLog, since string) float64 {
	var recent []model.WeightLog
	for _, w := range newestFirst {
		if w.Date >= since {
			recent = append(recent, w)
		}
	}
	if len(recent) < 2 {
		return 0
	}
	return round1(recent[0].Weight - recent[len(recent)-1].Weight)
}

// avgDailyCalories averages over the distinct days that have meal logs.
func avgDailyCalories(meals []model.MealLog, since string) float64 {
	days := map[string]struct{}{}
	total := 0.0
	for _, meal := range meals {
		if meal.Date < since {
			continue
		}
		days[meal.Date] = struct{}{}
		total += meal.Calories
	}
	if len(days) == 0 {
		return 0
	}
	return math.Round(total / float64(len(days)))
}

// completionRate is completed sessions against active workout plans divided by the
// non-rest days those plans expect, as a percentage.
func completionRate(plans []model.Plan, sessions []model.WorkoutSession) float64 {
	expected := 0
	planIDs := map[string]struct{}{}
	for _, p := range plans {
		if p.PlanType != model.PlanTypeWorkout {
			continue
		}
		planIDs[p.ID] = struct{}{}
		expected += p.Content.WorkoutDays()
	}
	if expected == 0 {
		return 0
	}

	completed := 0
	for _, s := range sessions {
		if _, ok := planIDs[s.PlanID]; ok && s.Completed {
			completed++
		}
	}
	return round1(math.Min(100, float64(completed)/float64(expected)*100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
