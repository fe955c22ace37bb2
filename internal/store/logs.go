package store

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// CreateWeightLog inserts a weight sample.
func (s *Store) CreateWeightLog(ctx context.Context, l *model.WeightLog) error {
	_, err := s.exec(ctx,
		`INSERT INTO weight_logs (id, user_id, weight, date, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Weight, l.Date, toMillis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert weight log: %w", err)
	}
	return nil
}

// CreateMealLog inserts a meal.
func (s *Store) CreateMealLog(ctx context.Context, l *model.MealLog) error {
	_, err := s.exec(ctx,
		`INSERT INTO meal_logs (id, user_id, meal_type, description, calories, protein, carbs, fat, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.MealType, l.Description, l.Calories, l.Protein, l.Carbs, l.Fat, l.Date, toMillis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal log: %w", err)
	}
	return nil
}

// CreateActivityLog inserts an activity.
func (s *Store) CreateActivityLog(ctx context.Context, l *model.ActivityLog) error {
	exercises, err := marshalJSON(l.Exercises)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx,
		`INSERT INTO activity_logs (id, user_id, workout_type, description, exercises, duration_minutes, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.WorkoutType, l.Description, exercises, l.DurationMinutes, l.Date, toMillis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// CreateMoodLog inserts a mood entry.
func (s *Store) CreateMoodLog(ctx context.Context, l *model.MoodLog) error {
	_, err := s.exec(ctx,
		`INSERT INTO mood_logs (id, user_id, mood, energy, notes, date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Mood, l.Energy, l.Notes, l.Date, toMillis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert mood log: %w", err)
	}
	return nil
}

// ListWeightLogs returns weight samples dated on or after since, newest first.
func (s *Store) ListWeightLogs(ctx context.Context, userID, since string) ([]model.WeightLog, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, weight, date, created_at FROM weight_logs
		 WHERE user_id = ? AND date >= ? ORDER BY date DESC, created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight logs: %w", err)
	}
	defer rows.Close()

	var list []model.WeightLog
	for rows.Next() {
		var l model.WeightLog
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.Weight, &l.Date, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(createdAt)
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListMealLogs returns meals dated on or after since, newest first.
func (s *Store) ListMealLogs(ctx context.Context, userID, since string) ([]model.MealLog, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, meal_type, description, calories, protein, carbs, fat, date, created_at FROM meal_logs
		 WHERE user_id = ? AND date >= ? ORDER BY date DESC, created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal logs: %w", err)
	}
	defer rows.Close()

	var list []model.MealLog
	for rows.Next() {
		var l model.MealLog
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.MealType, &l.Description, &l.Calories, &l.Protein,
			&l.Carbs, &l.Fat, &l.Date, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(createdAt)
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListActivityLogs returns activities dated on or after since, newest first.
func (s *Store) ListActivityLogs(ctx context.Context, userID, since string) ([]model.ActivityLog, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, workout_type, description, exercises, duration_minutes, date, created_at FROM activity_logs
		 WHERE user_id = ? AND date >= ? ORDER BY date DESC, created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var list []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		var exercises string
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.WorkoutType, &l.Description, &exercises,
			&l.DurationMinutes, &l.Date, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(createdAt)
		if err := unmarshalJSON(exercises, &l.Exercises); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ListMoodLogs returns mood entries dated on or after since, newest first.
func (s *Store) ListMoodLogs(ctx context.Context, userID, since string) ([]model.MoodLog, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, mood, energy, notes, date, created_at FROM mood_logs
		 WHERE user_id = ? AND date >= ? ORDER BY date DESC, created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood logs: %w", err)
	}
	defer rows.Close()

	var list []model.MoodLog
	for rows.Next() {
		var l model.MoodLog
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.Mood, &l.Energy, &l.Notes, &l.Date, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(createdAt)
		list = append(list, l)
	}
	return list, rows.Err()
}
