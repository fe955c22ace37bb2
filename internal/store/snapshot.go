package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// UpsertContextSnapshot writes the user's snapshot in one statement; concurrent refreshes
// for the same user resolve last-write-wins.
func (s *Store) UpsertContextSnapshot(ctx context.Context, snap *model.ContextSnapshot) error {
	data, err := marshalJSON(snap.Data)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO coach_context_snapshot (user_id, summary, data, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  summary = excluded.summary,
  data = excluded.data,
  updated_at = excluded.updated_at`,
		snap.UserID, snap.Summary, data, toMillis(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert context snapshot: %w", err)
	}
	return nil
}

// GetContextSnapshot returns the user's snapshot.
func (s *Store) GetContextSnapshot(ctx context.Context, userID string) (*model.ContextSnapshot, error) {
	var snap model.ContextSnapshot
	var data string
	var updatedAt int64
	err := s.queryRow(ctx,
		`SELECT user_id, summary, data, updated_at FROM coach_context_snapshot WHERE user_id = ?`, userID,
	).Scan(&snap.UserID, &snap.Summary, &data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get context snapshot: %w", err)
	}
	snap.UpdatedAt = fromMillis(updatedAt)
	if data != "" && data != "null" {
		snap.Data = &model.ContextBundle{}
		if err := unmarshalJSON(data, snap.Data); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}
