package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

const planColumns = `id, user_id, plan_type, week_number, year, start_date, content, active, completed, created_at, updated_at`

// UpsertPlan writes a plan keyed by (user, type, week number), replacing the content of an
// existing row for that week. The stored row is returned.
func (s *Store) UpsertPlan(ctx context.Context, p *model.Plan) (*model.Plan, error) {
	content, err := marshalJSON(p.Content)
	if err != nil {
		return nil, err
	}
	_, err = s.exec(ctx, `
INSERT INTO plans (`+planColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, plan_type, week_number) DO UPDATE SET
  year = excluded.year,
  start_date = excluded.start_date,
  content = excluded.content,
  active = excluded.active,
  completed = excluded.completed,
  updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.PlanType, p.WeekNumber, p.Year, p.StartDate, content, p.Active, p.Completed,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert plan: %w", err)
	}

	row := s.queryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = ? AND plan_type = ? AND week_number = ?`,
		p.UserID, p.PlanType, p.WeekNumber,
	)
	stored, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read back plan: %w", err)
	}
	return stored, nil
}

// GetPlan returns a plan owned by the user.
func (s *Store) GetPlan(ctx context.Context, userID, id string) (*model.Plan, error) {
	row := s.queryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

// ListActivePlans returns the user's active plans, most recent week first.
func (s *Store) ListActivePlans(ctx context.Context, userID string) ([]model.Plan, error) {
	rows, err := s.query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = ? AND active = ? ORDER BY start_date DESC`,
		userID, true,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var list []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// SetPlanCompleted updates only the completion flag of a plan.
func (s *Store) SetPlanCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error {
	res, err := s.exec(ctx,
		`UPDATE plans SET completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		completed, toMillis(at), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateWorkoutSession inserts a workout session.
func (s *Store) CreateWorkoutSession(ctx context.Context, ws *model.WorkoutSession) error {
	exercises, err := marshalJSON(ws.Exercises)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, plan_id, name, date, completed, exercises, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.UserID, ws.PlanID, ws.Name, ws.Date, ws.Completed, exercises, toMillis(ws.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert workout session: %w", err)
	}
	return nil
}

// ListWorkoutSessions returns up to limit sessions, newest first.
func (s *Store) ListWorkoutSessions(ctx context.Context, userID string, limit int) ([]model.WorkoutSession, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, plan_id, name, date, completed, exercises, created_at FROM workout_sessions
		 WHERE user_id = ? ORDER BY date DESC, created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sessions: %w", err)
	}
	defer rows.Close()

	var list []model.WorkoutSession
	for rows.Next() {
		var ws model.WorkoutSession
		var exercises string
		var createdAt int64
		if err := rows.Scan(&ws.ID, &ws.UserID, &ws.PlanID, &ws.Name, &ws.Date, &ws.Completed,
			&exercises, &createdAt); err != nil {
			return nil, err
		}
		ws.CreatedAt = fromMillis(createdAt)
		if err := unmarshalJSON(exercises, &ws.Exercises); err != nil {
			return nil, err
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	var p model.Plan
	var content string
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanType, &p.WeekNumber, &p.Year, &p.StartDate, &content,
		&p.Active, &p.Completed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	if err := unmarshalJSON(content, &p.Content); err != nil {
		return nil, err
	}
	return &p, nil
}
