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

const actionColumns = `id, user_id, conversation_id, action_type, target_table, target_id,
	payload, status, error_message, claimed_at, completed_at, created_at`

// CreateAction inserts a ledger row.
func (s *Store) CreateAction(ctx context.Context, rec *model.ActionRecord) error {
	payload, err := marshalJSON(rec.Payload)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx,
		`INSERT INTO coach_actions (`+actionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ConversationID, string(rec.ActionType), rec.TargetTable, rec.TargetID,
		payload, string(rec.Status), rec.ErrorMessage, nullMillis(rec.ClaimedAt), nullMillis(rec.CompletedAt),
		toMillis(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// GetAction returns a ledger row by id.
func (s *Store) GetAction(ctx context.Context, id string) (*model.ActionRecord, error) {
	row := s.queryRow(ctx, `SELECT `+actionColumns+` FROM coach_actions WHERE id = ?`, id)
	rec, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return rec, nil
}

// FindAction filters for ListActions.
type FindAction struct {
	UserID         string
	ConversationID *string
	Status         *model.ActionStatus
	CreatedAfter   *time.Time
	Limit          int
}

// ListActions returns a user's ledger rows, newest first.
func (s *Store) ListActions(ctx context.Context, find *FindAction) ([]*model.ActionRecord, error) {
	where, args := []string{"user_id = ?"}, []any{find.UserID}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = ?"), append(args, string(*v))
	}
	if v := find.CreatedAfter; v != nil {
		where, args = append(where, "created_at >= ?"), append(args, toMillis(*v))
	}
	query := `SELECT ` + actionColumns + ` FROM coach_actions WHERE ` + joinWhere(where) +
		` ORDER BY created_at DESC, id DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var list []*model.ActionRecord
	for rows.Next() {
		rec, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// LatestPendingAction returns the most recent pending row of the user, optionally scoped
// to a conversation and to rows created after a cutoff. Returns ErrNotFound when none qualifies.
func (s *Store) LatestPendingAction(ctx context.Context, userID string, conversationID *string, createdAfter *time.Time) (*model.ActionRecord, error) {
	status := model.ActionStatusPending
	list, err := s.ListActions(ctx, &FindAction{
		UserID:         userID,
		ConversationID: conversationID,
		Status:         &status,
		CreatedAfter:   createdAfter,
		Limit:          1,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// ClaimAction marks a pending, unclaimed row as claimed. It reports false when another
// consumer already claimed it or the row is no longer pending.
func (s *Store) ClaimAction(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.exec(ctx,
		`UPDATE coach_actions SET claimed_at = ?
		 WHERE id = ? AND status = ? AND claimed_at IS NULL`,
		toMillis(at), id, string(model.ActionStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim action: %w", err)
	}
	return n == 1, nil
}

// FinishAction moves a pending row to completed or failed, recording the result.
func (s *Store) FinishAction(ctx context.Context, rec *model.ActionRecord) error {
	if rec.Status == model.ActionStatusPending {
		return errors.New("store: cannot finish an action as pending")
	}
	payload, err := marshalJSON(rec.Payload)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx,
		`UPDATE coach_actions
		 SET status = ?, payload = ?, error_message = ?, target_id = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		string(rec.Status), payload, rec.ErrorMessage, rec.TargetID, nullMillis(rec.CompletedAt),
		rec.ID, string(model.ActionStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to finish action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish action: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (*model.ActionRecord, error) {
	var rec model.ActionRecord
	var actionType, status, payload string
	var claimedAt, completedAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.ConversationID, &actionType, &rec.TargetTable, &rec.TargetID,
		&payload, &status, &rec.ErrorMessage, &claimedAt, &completedAt, &createdAt,
	); err != nil {
		return nil, err
	}
	rec.ActionType = model.ActionType(actionType)
	rec.Status = model.ActionStatus(status)
	rec.ClaimedAt = fromNullMillis(claimedAt)
	rec.CompletedAt = fromNullMillis(completedAt)
	rec.CreatedAt = fromMillis(createdAt)
	if err := unmarshalJSON(payload, &rec.Payload); err != nil {
		return nil, err
	}
	return &rec, nil
}

func joinWhere(where []string) string {
	return strings.Join(where, " AND ")
}
