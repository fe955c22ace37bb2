package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
)

// ErrInvalidInput is returned for requests missing required fields.
var ErrInvalidInput = errors.New("invalid input")

// LogService records weight, meal and activity entries.
type LogService struct {
	store *store.Store
	now   func() time.Time
}

// NewLogService creates a new log service.
func NewLogService(st *store.Store) *LogService {
	return &LogService{store: st, now: time.Now}
}

// LogActivity stores a workout or activity.
func (s *LogService) LogActivity(ctx context.Context, userID string, req *model.LogActivityRequest) (*model.ActivityLog, error) {
	if strings.TrimSpace(req.WorkoutType) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: workout_type and description are required", ErrInvalidInput)
	}
	if req.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration_minutes must not be negative", ErrInvalidInput)
	}
	now := s.now()
	date, err := entryDate(req.Date, now)
	if err != nil {
		return nil, err
	}

	entry := &model.ActivityLog{
		ID:              uuid.Must(uuid.NewV7()).String(),
		UserID:          userID,
		WorkoutType:     strings.TrimSpace(req.WorkoutType),
		Description:     strings.TrimSpace(req.Description),
		Exercises:       req.Exercises,
		DurationMinutes: req.DurationMinutes,
		Date:            date,
		CreatedAt:       now,
	}
	if err := s.store.CreateActivityLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LogMeal stores a meal.
func (s *LogService) LogMeal(ctx context.Context, userID string, req *model.LogMealRequest) (*model.MealLog, error) {
	if strings.TrimSpace(req.MealType) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: meal_type and description are required", ErrInvalidInput)
	}
	if req.Calories < 0 || req.Protein < 0 || req.Carbs < 0 || req.Fat < 0 {
		return nil, fmt.Errorf("%w: macros must not be negative", ErrInvalidInput)
	}
	now := s.now()
	date, err := entryDate(req.Date, now)
	if err != nil {
		return nil, err
	}

	entry := &model.MealLog{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      userID,
		MealType:    strings.ToLower(strings.TrimSpace(req.MealType)),
		Description: strings.TrimSpace(req.Description),
		Calories:    req.Calories,
		Protein:     req.Protein,
		Carbs:       req.Carbs,
		Fat:         req.Fat,
		Date:        date,
		CreatedAt:   now,
	}
	if err := s.store.CreateMealLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LogWeight stores a body weight sample.
func (s *LogService) LogWeight(ctx context.Context, userID string, req *model.LogWeightRequest) (*model.WeightLog, error) {
	if req.Weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be greater than zero", ErrInvalidInput)
	}
	now := s.now()
	date, err := entryDate(req.Date, now)
	if err != nil {
		return nil, err
	}

	entry := &model.WeightLog{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Weight:    req.Weight,
		Date:      date,
		CreatedAt: now,
	}
	if err := s.store.CreateWeightLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// entryDate validates a YYYY-MM-DD date, defaulting to today in UTC.
func entryDate(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC().Format(model.DateLayout), nil
	}
	if _, err := time.Parse(model.DateLayout, raw); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return raw, nil
}
