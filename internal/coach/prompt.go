package coach

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/fitness-coach/internal/llm"
	"github.com/capitalize-ai/fitness-coach/internal/model"
)

const historyWindow = 8

// Presentation limits for the rendered context.
const (
	promptWeights    = 5
	promptMeals      = 5
	promptActivities = 3
	promptMoods      = 3
	promptSessions   = 3
	promptExercises  = 4
)

// coachInstructions is sent verbatim on every call.
const coachInstructions = `You are an encouraging, knowledgeable personal fitness coach. You can see the user's profile, goals, recent logs, plans and workout sessions below. Answer conversationally and keep replies focused and practical.

You can also take ONE action per reply on the user's behalf. Available actions:
- GENERATE_PLANS: create a new weekly workout plan. Use when the user asks for a new, fresh or regenerated plan. Parameters: start_date (YYYY-MM-DD, optional), focus (optional), days_per_week (optional).
- UPDATE_PLAN: change an existing plan. Use when the user wants to mark a plan complete or change it. Parameters: plan_id, completed (boolean), changes (free text).
- LOG_WORKOUT: record a workout the user says they did. Parameters: workout_type, description, exercises (list of {name, sets, reps, weight}), duration_minutes, date.
- LOG_MEAL: record something the user ate. Parameters: meal_type (breakfast, lunch, dinner, snack), description, calories, protein, carbs, fat, date.
- LOG_WEIGHT: record a body weight the user reports. Parameters: weight, date.
- LOG_MOOD: record how the user feels. Parameters: mood, energy (1-5), notes, date.
- ADJUST_GOALS: change the user's goals. Use when the user wants a new target weight, calorie or protein target, or workout frequency. Parameters: goal_type, starting_weight, goal_weight, target_date, weekly_workouts, daily_calories, daily_protein, notes.
- UPDATE_BENCHMARK: record a strength benchmark. Use when the user reports a lift or sets a lift target. Parameters: exercise, current_weight, current_reps, target_weight, target_date.
- NONE: no action. Use for questions, advice and general conversation.

Logging actions (LOG_WORKOUT, LOG_MEAL, LOG_WEIGHT, LOG_MOOD, UPDATE_BENCHMARK) run immediately: set "requiresConfirmation": false.
Actions that replace or change plans and goals (GENERATE_PLANS, UPDATE_PLAN, ADJUST_GOALS) need the user's explicit confirmation first: set "requiresConfirmation": true and ask the user to confirm.
Dates are YYYY-MM-DD. Omit parameters you do not know; never invent numbers the user did not give.

When you decide on an action other than NONE, end your reply with exactly one fenced block in this format:
` + "```json" + `
{"action": {"type": "LOG_WEIGHT", "requiresConfirmation": false, "parameters": {"weight": 80.5}, "reasoning": "User reported their weight."}}
` + "```" + `
Do not include the block when the action is NONE.`

// BuildPrompt renders the system prompt and the bounded message window for a turn.
// history is chronological; only the last historyWindow user and assistant turns are kept.
func BuildPrompt(b *model.ContextBundle, history []model.Message, userMessage string) (string, []llm.ChatMessage) {
	system := coachInstructions + "\n\n" + RenderContext(b)

	var turns []model.Message
	for _, m := range history {
		if m.Role == model.RoleUser || m.Role == model.RoleAssistant {
			turns = append(turns, m)
		}
	}
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}

	messages := make([]llm.ChatMessage, 0, len(turns)+1)
	for _, m := range turns {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleUser), Content: userMessage})
	return system, messages
}

// RenderContext renders the bundle as the context section of the system prompt.
func RenderContext(b *model.ContextBundle) string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	line("## User context (as of %s)", b.AssembledAt.Format(model.DateLayout))
	line("Name: %s", b.Profile.Name)

	if fp := b.FitnessProfile; fp != nil {
		line("\n## Fitness profile")
		if fp.Age > 0 {
			line("Age: %d", fp.Age)
		}
		if fp.Sex != "" {
			line("Sex: %s", fp.Sex)
		}
		if fp.HeightCm > 0 {
			line("Height: %.0f cm", fp.HeightCm)
		}
		if fp.ActivityLevel != "" {
			line("Activity level: %s", fp.ActivityLevel)
		}
		if fp.ExperienceLevel != "" {
			line("Experience: %s", fp.ExperienceLevel)
		}
		if len(fp.Equipment) > 0 {
			line("Equipment: %s", strings.Join(fp.Equipment, ", "))
		}
		if fp.Injuries != "" {
			line("Injuries: %s", fp.Injuries)
		}
	}

	if g := b.Goals; g != nil {
		line("\n## Goals")
		if g.GoalType != "" {
			line("Goal: %s", g.GoalType)
		}
		if g.StartingWeight > 0 || g.GoalWeight > 0 {
			line("Starting weight: %.1f, goal weight: %.1f", g.StartingWeight, g.GoalWeight)
		}
		if g.TargetDate != "" {
			line("Target date: %s", g.TargetDate)
		}
		if g.WeeklyWorkouts > 0 {
			line("Workouts per week: %d", g.WeeklyWorkouts)
		}
		if g.DailyCalories > 0 || g.DailyProtein > 0 {
			line("Daily targets: %d kcal, %d g protein", g.DailyCalories, g.DailyProtein)
		}
		for _, bm := range g.Benchmarks {
			line("Benchmark %s: %.1f x %d, target %.1f by %s", bm.Exercise, bm.CurrentWeight, bm.CurrentReps, bm.TargetWeight, orDash(bm.TargetDate))
		}
	}

	m := b.Metrics
	line("\n## Progress")
	line("Current weight: %.1f", m.CurrentWeight)
	line("Weight lost: %.1f (%.1f%% of goal)", m.WeightLost, m.GoalProgressPercent)
	line("7-day weight trend: %+.1f", m.WeightTrend7Days)
	line("Average daily calories (7 days): %.0f", m.AvgDailyCalories7Days)
	line("Workout completion rate: %.1f%%", m.WorkoutCompletionRate)

	if list := b.Logs.Weights; len(list) > 0 {
		line("\n## Recent weights")
		for _, w := range head(list, promptWeights) {
			line("- %s: %.1f", w.Date, w.Weight)
		}
	}
	if list := b.Logs.Meals; len(list) > 0 {
		line("\n## Recent meals")
		for _, meal := range head(list, promptMeals) {
			line("- %s %s: %s (%.0f kcal, %.0f g protein)", meal.Date, meal.MealType, meal.Description, meal.Calories, meal.Protein)
		}
	}
	if list := b.Logs.Activities; len(list) > 0 {
		line("\n## Recent activities")
		for _, act := range head(list, promptActivities) {
			line("- %s %s: %s", act.Date, act.WorkoutType, act.Description)
		}
	}
	if list := b.Logs.Moods; len(list) > 0 {
		line("\n## Recent moods")
		for _, mood := range head(list, promptMoods) {
			line("- %s: %s (energy %d)", mood.Date, mood.Mood, mood.Energy)
		}
	}

	if len(b.ActivePlans) > 0 {
		line("\n## Active plans")
		for _, p := range b.ActivePlans {
			status := "in progress"
			if p.Completed {
				status = "completed"
			}
			line("- %s plan id=%s week %d of %d starting %s, %d workout days, %s", p.PlanType, p.ID, p.WeekNumber, p.Year, p.StartDate, p.Content.WorkoutDays(), status)
		}
	}

	if list := b.WorkoutSessions; len(list) > 0 {
		line("\n## Recent workout sessions")
		for _, s := range head(list, promptSessions) {
			done := "planned"
			if s.Completed {
				done = "completed"
			}
			line("- %s %s (%s)", s.Date, s.Name, done)
			for _, ex := range head(s.Exercises, promptExercises) {
				line("  - %s %dx%d @ %.1f", ex.Name, ex.Sets, ex.Reps, ex.Weight)
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
