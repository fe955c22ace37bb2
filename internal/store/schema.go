package store

import (
	"context"
)

// The DDL is shared by sqlite and postgres: text primary keys, BIGINT unix-millisecond
// timestamps and JSON held in TEXT columns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id    TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		timezone   TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fitness_profiles (
		user_id          TEXT PRIMARY KEY,
		age              INTEGER NOT NULL DEFAULT 0,
		sex              TEXT NOT NULL DEFAULT '',
		height_cm        DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
		activity_level   TEXT NOT NULL DEFAULT '',
		experience_level TEXT NOT NULL DEFAULT '',
		equipment        TEXT NOT NULL DEFAULT '[]',
		injuries         TEXT NOT NULL DEFAULT '',
		updated_at       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS goals (
		user_id         TEXT PRIMARY KEY,
		goal_type       TEXT NOT NULL DEFAULT '',
		starting_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		goal_weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
		target_date     TEXT NOT NULL DEFAULT '',
		weekly_workouts INTEGER NOT NULL DEFAULT 0,
		daily_calories  INTEGER NOT NULL DEFAULT 0,
		daily_protein   INTEGER NOT NULL DEFAULT 0,
		notes           TEXT NOT NULL DEFAULT '',
		benchmarks      TEXT NOT NULL DEFAULT '[]',
		updated_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weight_logs (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		weight     DOUBLE PRECISION NOT NULL,
		date       TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meal_logs (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		meal_type   TEXT NOT NULL,
		description TEXT NOT NULL,
		calories    DOUBLE PRECISION NOT NULL DEFAULT 0,
		protein     DOUBLE PRECISION NOT NULL DEFAULT 0,
		carbs       DOUBLE PRECISION NOT NULL DEFAULT 0,
		fat         DOUBLE PRECISION NOT NULL DEFAULT 0,
		date        TEXT NOT NULL,
		created_at  BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		workout_type     TEXT NOT NULL,
		description      TEXT NOT NULL,
		exercises        TEXT NOT NULL DEFAULT '[]',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		date             TEXT NOT NULL,
		created_at       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mood_logs (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		mood       TEXT NOT NULL,
		energy     INTEGER NOT NULL DEFAULT 0,
		notes      TEXT NOT NULL DEFAULT '',
		date       TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		plan_type   TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		year        INTEGER NOT NULL,
		start_date  TEXT NOT NULL,
		content     TEXT NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL,
		UNIQUE (user_id, plan_type, week_number)
	)`,
	`CREATE TABLE IF NOT EXISTS workout_sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		plan_id    TEXT NOT NULL DEFAULT '',
		name       TEXT NOT NULL DEFAULT '',
		date       TEXT NOT NULL,
		completed  BOOLEAN NOT NULL DEFAULT FALSE,
		exercises  TEXT NOT NULL DEFAULT '[]',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		user_id         TEXT NOT NULL,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		metadata        TEXT NOT NULL DEFAULT '',
		created_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS coach_actions (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		action_type     TEXT NOT NULL,
		target_table    TEXT NOT NULL DEFAULT '',
		target_id       TEXT NOT NULL DEFAULT '',
		payload         TEXT NOT NULL,
		status          TEXT NOT NULL,
		error_message   TEXT NOT NULL DEFAULT '',
		claimed_at      BIGINT,
		completed_at    BIGINT,
		created_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS coach_context_snapshot (
		user_id    TEXT PRIMARY KEY,
		summary    TEXT NOT NULL,
		data       TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_weight_logs_user_date ON weight_logs(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_meal_logs_user_date ON meal_logs(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_activity_logs_user_date ON activity_logs(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_mood_logs_user_date ON mood_logs(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_workout_sessions_user_date ON workout_sessions(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_coach_actions_user_status ON coach_actions(user_id, status, created_at)",
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
