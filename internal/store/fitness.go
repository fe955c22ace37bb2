package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// GetProfile returns the stored user profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	var createdAt int64
	err := s.queryRow(ctx,
		`SELECT user_id, name, email, timezone, created_at FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Email, &p.Timezone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// UpsertProfile creates or replaces a user profile.
func (s *Store) UpsertProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.exec(ctx, `
INSERT INTO profiles (user_id, name, email, timezone, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  name = excluded.name,
  email = excluded.email,
  timezone = excluded.timezone`,
		p.UserID, p.Name, p.Email, p.Timezone, toMillis(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetFitnessProfile returns the user's fitness profile.
func (s *Store) GetFitnessProfile(ctx context.Context, userID string) (*model.FitnessProfile, error) {
	var fp model.FitnessProfile
	var equipment string
	var updatedAt int64
	err := s.queryRow(ctx, `
SELECT user_id, age, sex, height_cm, current_weight, activity_level, experience_level, equipment, injuries, updated_at
FROM fitness_profiles WHERE user_id = ?`, userID,
	).Scan(&fp.UserID, &fp.Age, &fp.Sex, &fp.HeightCm, &fp.CurrentWeight, &fp.ActivityLevel,
		&fp.ExperienceLevel, &equipment, &fp.Injuries, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fitness profile: %w", err)
	}
	fp.UpdatedAt = fromMillis(updatedAt)
	if err := unmarshalJSON(equipment, &fp.Equipment); err != nil {
		return nil, err
	}
	return &fp, nil
}

// UpsertFitnessProfile creates or replaces a fitness profile.
func (s *Store) UpsertFitnessProfile(ctx context.Context, fp *model.FitnessProfile) error {
	equipment, err := marshalJSON(fp.Equipment)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO fitness_profiles (user_id, age, sex, height_cm, current_weight, activity_level,
  experience_level, equipment, injuries, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  age = excluded.age,
  sex = excluded.sex,
  height_cm = excluded.height_cm,
  current_weight = excluded.current_weight,
  activity_level = excluded.activity_level,
  experience_level = excluded.experience_level,
  equipment = excluded.equipment,
  injuries = excluded.injuries,
  updated_at = excluded.updated_at`,
		fp.UserID, fp.Age, fp.Sex, fp.HeightCm, fp.CurrentWeight, fp.ActivityLevel,
		fp.ExperienceLevel, equipment, fp.Injuries, toMillis(fp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fitness profile: %w", err)
	}
	return nil
}

// GetGoals returns the user's goals row.
func (s *Store) GetGoals(ctx context.Context, userID string) (*model.Goals, error) {
	var g model.Goals
	var benchmarks string
	var updatedAt int64
	err := s.queryRow(ctx, `
SELECT user_id, goal_type, starting_weight, goal_weight, target_date, weekly_workouts,
  daily_calories, daily_protein, notes, benchmarks, updated_at
FROM goals WHERE user_id = ?`, userID,
	).Scan(&g.UserID, &g.GoalType, &g.StartingWeight, &g.GoalWeight, &g.TargetDate, &g.WeeklyWorkouts,
		&g.DailyCalories, &g.DailyProtein, &g.Notes, &benchmarks, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	g.UpdatedAt = fromMillis(updatedAt)
	if err := unmarshalJSON(benchmarks, &g.Benchmarks); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertGoals writes the supplied goal fields, conflict-keyed on the user, leaving
// unsupplied columns untouched.
func (s *Store) UpsertGoals(ctx context.Context, userID string, update model.GoalsUpdate, at time.Time) (*model.Goals, error) {
	cols, args := []string{"user_id", "updated_at"}, []any{userID, toMillis(at)}
	add := func(col string, v any) {
		cols, args = append(cols, col), append(args, v)
	}
	if v := update.GoalType; v != nil {
		add("goal_type", *v)
	}
	if v := update.StartingWeight; v != nil {
		add("starting_weight", *v)
	}
	if v := update.GoalWeight; v != nil {
		add("goal_weight", *v)
	}
	if v := update.TargetDate; v != nil {
		add("target_date", *v)
	}
	if v := update.WeeklyWorkouts; v != nil {
		add("weekly_workouts", *v)
	}
	if v := update.DailyCalories; v != nil {
		add("daily_calories", *v)
	}
	if v := update.DailyProtein; v != nil {
		add("daily_protein", *v)
	}
	if v := update.Notes; v != nil {
		add("notes", *v)
	}

	set := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		set = append(set, col+" = excluded."+col)
	}
	stmt := fmt.Sprintf(
		`INSERT INTO goals (%s) VALUES (%s) ON CONFLICT (user_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(set, ", "),
	)
	if _, err := s.exec(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert goals: %w", err)
	}
	return s.GetGoals(ctx, userID)
}

// SaveBenchmarks replaces the user's benchmark list.
func (s *Store) SaveBenchmarks(ctx context.Context, userID string, benchmarks []model.Benchmark, at time.Time) error {
	if benchmarks == nil {
		benchmarks = []model.Benchmark{}
	}
	raw, err := marshalJSON(benchmarks)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO goals (user_id, benchmarks, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  benchmarks = excluded.benchmarks,
  updated_at = excluded.updated_at`,
		userID, raw, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("failed to save benchmarks: %w", err)
	}
	return nil
}
