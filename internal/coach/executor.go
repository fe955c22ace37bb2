package coach

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
)

// ErrUnsupportedAction is returned for an action type without a handler.
var ErrUnsupportedAction = errors.New("coach: unsupported action type")

// Collaborator endpoint paths.
const (
	PathLogActivity  = "/logs/activity"
	PathLogMeal      = "/logs/meal"
	PathLogWeight    = "/logs/weight"
	PathGeneratePlan = "/plans/generate"
)

// Executor runs decided actions. Each action type has one handler; endpoint-backed
// handlers go through the collaborator, the rest write to the store directly.
type Executor struct {
	collab *Collaborator
	store  *store.Store
	now    func() time.Time
}

// NewExecutor creates an executor.
func NewExecutor(collab *Collaborator, st *store.Store) *Executor {
	return &Executor{
		collab: collab,
		store:  st,
		now:    time.Now,
	}
}

// Execute dispatches the action to its handler.
func (e *Executor) Execute(ctx context.Context, rc RequestContext, action *model.Action) (*model.ActionResult, error) {
	p := params(action.Parameters)

	switch action.Type {
	case model.ActionGeneratePlans:
		return e.generatePlans(ctx, rc, p)
	case model.ActionUpdatePlan:
		return e.updatePlan(ctx, rc, p)
	case model.ActionLogWorkout:
		return e.logWorkout(ctx, rc, p)
	case model.ActionLogMeal:
		return e.logMeal(ctx, rc, p)
	case model.ActionLogWeight:
		return e.logWeight(ctx, rc, p)
	case model.ActionLogMood:
		return e.logMood(ctx, rc, p)
	case model.ActionAdjustGoals:
		return e.adjustGoals(ctx, rc, p)
	case model.ActionUpdateBenchmark:
		return e.updateBenchmark(ctx, rc, p)
	case model.ActionNone:
		return &model.ActionResult{Success: true, Message: "Nothing to do."}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Type)
	}
}

func (e *Executor) generatePlans(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	req := model.GeneratePlanRequest{
		StartDate: p.str("start_date"),
		Focus:     p.str("focus", "goal"),
	}
	req.DaysPerWeek, _ = p.int("days_per_week", "workouts_per_week")

	data, err := e.collab.Call(ctx, rc, http.MethodPost, PathGeneratePlan, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	msg := "Your new weekly workout plan is ready."
	if week, ok := params(data).int("week_number"); ok {
		msg = fmt.Sprintf("Your workout plan for week %d is ready.", week)
	}
	return &model.ActionResult{Success: true, Message: msg, Data: data}, nil
}

func (e *Executor) updatePlan(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	planID := p.str("plan_id", "id")
	completed, hasCompleted := p.boolean("completed")

	if planID == "" || !hasCompleted {
		return &model.ActionResult{
			Success: true,
			Message: "I've noted the plan change for manual review.",
			Data:    map[string]any{"review": true, "changes": p.str("changes", "description")},
		}, nil
	}

	err := e.store.SetPlanCompleted(ctx, rc.UserID, planID, completed, e.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalidParam("plan %s not found", planID)
	}
	if err != nil {
		return nil, err
	}

	msg := "Marked your plan as in progress."
	if completed {
		msg = "Marked your plan as completed."
	}
	return &model.ActionResult{
		Success: true,
		Message: msg,
		Data:    map[string]any{"id": planID, "completed": completed},
	}, nil
}

func (e *Executor) logWorkout(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	date, err := p.date("date", e.now())
	if err != nil {
		return nil, err
	}
	req := model.LogActivityRequest{
		WorkoutType: p.str("workout_type", "type"),
		Description: p.str("description", "notes"),
		Exercises:   p.exercises("exercises"),
		Date:        date,
	}
	req.DurationMinutes, _ = p.int("duration_minutes", "duration")
	if req.WorkoutType == "" {
		req.WorkoutType = "general"
	}
	if req.Description == "" {
		req.Description = req.WorkoutType + " workout"
	}

	data, err := e.collab.Call(ctx, rc, http.MethodPost, PathLogActivity, req)
	if err != nil {
		return nil, fmt.Errorf("failed to log workout: %w", err)
	}
	return &model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Logged your %s workout for %s.", req.WorkoutType, req.Date),
		Data:    data,
	}, nil
}

func (e *Executor) logMeal(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	date, err := p.date("date", e.now())
	if err != nil {
		return nil, err
	}
	req := model.LogMealRequest{
		MealType:    p.str("meal_type", "meal"),
		Description: p.str("description", "food"),
		Date:        date,
	}
	if req.Description == "" {
		return nil, invalidParam("meal description is required")
	}
	if req.MealType == "" {
		req.MealType = "snack"
	}
	req.Calories, _ = p.float("calories")
	req.Protein, _ = p.float("protein")
	req.Carbs, _ = p.float("carbs")
	req.Fat, _ = p.float("fat")

	data, err := e.collab.Call(ctx, rc, http.MethodPost, PathLogMeal, req)
	if err != nil {
		return nil, fmt.Errorf("failed to log meal: %w", err)
	}
	return &model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Logged your %s: %s.", req.MealType, req.Description),
		Data:    data,
	}, nil
}

func (e *Executor) logWeight(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	weight, ok := p.float("weight")
	if !ok || weight <= 0 {
		return nil, invalidParam("a positive weight is required")
	}
	date, err := p.date("date", e.now())
	if err != nil {
		return nil, err
	}

	data, err := e.collab.Call(ctx, rc, http.MethodPost, PathLogWeight, model.LogWeightRequest{Weight: weight, Date: date})
	if err != nil {
		return nil, fmt.Errorf("failed to log weight: %w", err)
	}
	return &model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Logged your weight of %.1f for %s.", weight, date),
		Data:    data,
	}, nil
}

func (e *Executor) logMood(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	mood := p.str("mood", "feeling")
	if mood == "" {
		return nil, invalidParam("mood is required")
	}
	now := e.now()
	date, err := p.date("date", now)
	if err != nil {
		return nil, err
	}

	entry := &model.MoodLog{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    rc.UserID,
		Mood:      mood,
		Notes:     p.str("notes"),
		Date:      date,
		CreatedAt: now,
	}
	entry.Energy, _ = p.int("energy", "energy_level")
	if err := e.store.CreateMoodLog(ctx, entry); err != nil {
		return nil, err
	}
	return &model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Logged your mood as %s.", mood),
		Data:    map[string]any{"id": entry.ID, "mood": mood, "date": date},
	}, nil
}

func (e *Executor) adjustGoals(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	var update model.GoalsUpdate
	if v := p.str("goal_type"); v != "" {
		update.GoalType = &v
	}
	if v, ok := p.float("starting_weight"); ok {
		update.StartingWeight = &v
	}
	if v, ok := p.float("goal_weight", "target_weight"); ok {
		update.GoalWeight = &v
	}
	if v := p.str("target_date"); v != "" {
		update.TargetDate = &v
	}
	if v, ok := p.int("weekly_workouts", "workouts_per_week"); ok {
		update.WeeklyWorkouts = &v
	}
	if v, ok := p.int("daily_calories", "calories"); ok {
		update.DailyCalories = &v
	}
	if v, ok := p.int("daily_protein", "protein"); ok {
		update.DailyProtein = &v
	}
	if v := p.str("notes"); v != "" {
		update.Notes = &v
	}
	if update.Empty() {
		return nil, invalidParam("no goal fields were supplied")
	}

	goals, err := e.store.UpsertGoals(ctx, rc.UserID, update, e.now())
	if err != nil {
		return nil, err
	}
	return &model.ActionResult{
		Success: true,
		Message: "Updated your goals.",
		Data:    map[string]any{"id": goals.UserID, "goals": goals},
	}, nil
}

func (e *Executor) updateBenchmark(ctx context.Context, rc RequestContext, p params) (*model.ActionResult, error) {
	b := model.Benchmark{
		Exercise:   p.str("exercise", "name"),
		TargetDate: p.str("target_date"),
	}
	if b.Exercise == "" {
		return nil, invalidParam("benchmark exercise is required")
	}
	b.CurrentWeight, _ = p.float("current_weight", "weight")
	b.CurrentReps, _ = p.int("current_reps", "reps")
	b.TargetWeight, _ = p.float("target_weight")

	var existing []model.Benchmark
	goals, err := e.store.GetGoals(ctx, rc.UserID)
	switch {
	case err == nil:
		existing = goals.Benchmarks
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	merged := MergeBenchmark(existing, b)
	if err := e.store.SaveBenchmarks(ctx, rc.UserID, merged, e.now()); err != nil {
		return nil, err
	}
	return &model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Updated your %s benchmark.", b.Exercise),
		Data:    map[string]any{"id": rc.UserID, "benchmarks": merged},
	}, nil
}

// Run executes the action and folds a handler error into a failed result.
func (e *Executor) Run(ctx context.Context, rc RequestContext, action *model.Action) *Outcome {
	o := &Outcome{Action: action, Route: RouteExecute}
	o.Result, o.Err = e.Execute(ctx, rc, action)
	if o.Err != nil {
		o.Result = &model.ActionResult{Success: false, Message: o.UserMessage()}
	}
	return o
}
