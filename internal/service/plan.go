package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/llm"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/jsonscan"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

// ErrPlanGeneration is returned when the completion service fails or returns no usable week.
var ErrPlanGeneration = errors.New("plan generation failed")

const (
	defaultDaysPerWeek = 4
	daysInWeek         = 7
)

const planInstructions = `You are a strength and conditioning coach writing a one-week workout plan.
Reply with a single JSON object and nothing else, in this format:
{"summary": "one sentence", "days": [{"day": "Monday", "focus": "Upper body", "rest": false, "exercises": [{"name": "Bench press", "sets": 3, "reps": "8-10", "weight": 60, "notes": ""}], "notes": ""}]}
Include all seven days from the start day. Rest days have "rest": true and no exercises.`

// PlanOptions configures the completion call used for plan generation.
type PlanOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// PlanService generates and lists workout plans.
type PlanService struct {
	store  *store.Store
	llm    llm.Client
	opts   PlanOptions
	logger *logger.Logger
	now    func() time.Time
}

// NewPlanService creates a new plan service.
func NewPlanService(st *store.Store, client llm.Client, opts PlanOptions, log *logger.Logger) *PlanService {
	return &PlanService{
		store:  st,
		llm:    client,
		opts:   opts,
		logger: log.Named("plans"),
		now:    time.Now,
	}
}

// ListActive returns the caller's active plans.
func (s *PlanService) ListActive(ctx context.Context, userID string) ([]model.Plan, error) {
	plans, err := s.store.ListActivePlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	return plans, nil
}

// Generate asks the completion service for a seven-day week starting at req.StartDate
// (today when empty) and upserts it as the workout plan of that ISO week.
func (s *PlanService) Generate(ctx context.Context, userID string, req *model.GeneratePlanRequest) (*model.Plan, error) {
	now := s.now().UTC()
	start := now
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		parsed, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		start = parsed
	}
	daysPerWeek := req.DaysPerWeek
	if daysPerWeek <= 0 {
		daysPerWeek = defaultDaysPerWeek
	}
	if daysPerWeek > daysInWeek {
		return nil, fmt.Errorf("%w: days_per_week must be at most %d", ErrInvalidInput, daysInWeek)
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       s.opts.Model,
		System:      planInstructions,
		Messages:    []llm.ChatMessage{{Role: "user", Content: s.planRequest(ctx, userID, start, daysPerWeek, req.Focus)}},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		s.logger.Error("plan completion failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPlanGeneration, err)
	}

	week, err := ParseWeekPlan(resp.Content, start)
	if err != nil {
		s.logger.Warn("unusable plan reply", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPlanGeneration, err)
	}

	year, weekNumber := start.ISOWeek()
	plan, err := s.store.UpsertPlan(ctx, &model.Plan{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		PlanType:   model.PlanTypeWorkout,
		WeekNumber: weekNumber,
		Year:       year,
		StartDate:  start.Format(model.DateLayout),
		Content:    *week,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("plan generated",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.Int("week_number", weekNumber),
	)
	return plan, nil
}

func (s *PlanService) planRequest(ctx context.Context, userID string, start time.Time, daysPerWeek int, focus string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write my plan for the week starting %s (%s) with %d workout days.",
		start.Format(model.DateLayout), start.Weekday(), daysPerWeek)
	if focus != "" {
		fmt.Fprintf(&sb, " Focus: %s.", focus)
	}
	if fp, err := s.store.GetFitnessProfile(ctx, userID); err == nil {
		if fp.ExperienceLevel != "" {
			fmt.Fprintf(&sb, " Experience: %s.", fp.ExperienceLevel)
		}
		if len(fp.Equipment) > 0 {
			fmt.Fprintf(&sb, " Equipment: %s.", strings.Join(fp.Equipment, ", "))
		}
		if fp.Injuries != "" {
			fmt.Fprintf(&sb, " Injuries to work around: %s.", fp.Injuries)
		}
	}
	if g, err := s.store.GetGoals(ctx, userID); err == nil && g.GoalType != "" {
		fmt.Fprintf(&sb, " Goal: %s.", g.GoalType)
	}
	return sb.String()
}

// ParseWeekPlan extracts the week from a plan reply and normalizes it to seven dated
// days from start. Days the reply leaves out become rest days.
func ParseWeekPlan(reply string, start time.Time) (*model.WeekPlan, error) {
	raw, ok := jsonscan.FirstObject(reply)
	if !ok {
		return nil, errors.New("reply contains no JSON object")
	}
	var parsed model.WeekPlan
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if len(parsed.Days) == 0 {
		return nil, errors.New("plan has no days")
	}

	byName := make(map[string]model.PlanDay, len(parsed.Days))
	for _, d := range parsed.Days {
		if name := strings.ToLower(strings.TrimSpace(d.Day)); name != "" {
			byName[name] = d
		}
	}

	week := &model.WeekPlan{Summary: parsed.Summary, Days: make([]model.PlanDay, 0, daysInWeek)}
	for i := 0; i < daysInWeek; i++ {
		date := start.AddDate(0, 0, i)
		name := date.Weekday().String()

		day, found := byName[strings.ToLower(name)]
		if !found && len(byName) == 0 && i < len(parsed.Days) {
			day, found = parsed.Days[i], true
		}
		if !found {
			day = model.PlanDay{Focus: "Rest", Rest: true}
		}
		day.Day = name
		day.Date = date.Format(model.DateLayout)
		if len(day.Exercises) == 0 && day.Focus == "" {
			day.Rest = true
			day.Focus = "Rest"
		}
		week.Days = append(week.Days, day)
	}
	return week, nil
}
