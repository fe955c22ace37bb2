package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// CreateConversation inserts a conversation.
func (s *Store) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	_, err := s.exec(ctx,
		`INSERT INTO conversations (id, user_id, created_at) VALUES (?, ?, ?)`,
		conv.ID, conv.UserID, toMillis(conv.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	var createdAt int64
	err := s.queryRow(ctx,
		`SELECT id, user_id, created_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.UserID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	conv.CreatedAt = fromMillis(createdAt)
	return &conv, nil
}

// CreateMessage appends a message to a conversation.
func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	metadata := ""
	if msg.Metadata != nil {
		raw, err := marshalJSON(msg.Metadata)
		if err != nil {
			return err
		}
		metadata = raw
	}
	_, err := s.exec(ctx,
		`INSERT INTO messages (id, conversation_id, user_id, role, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.UserID, string(msg.Role), msg.Content, metadata, toMillis(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// FindMessage filters for ListMessages.
type FindMessage struct {
	ConversationID *string
	UserID         *string
	// Newest returns the most recent rows first; otherwise chronological.
	Newest bool
	Limit  int
}

// ListMessages lists messages matching the filter.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]model.Message, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	order := "ASC"
	if find.Newest {
		order = "DESC"
	}
	query := `SELECT id, conversation_id, user_id, role, content, metadata, created_at
	          FROM messages WHERE ` + joinWhere(where) +
		` ORDER BY created_at ` + order + `, id ` + order
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var list []model.Message
	for rows.Next() {
		var m model.Message
		var role, metadata string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &metadata, &createdAt); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		m.CreatedAt = fromMillis(createdAt)
		if metadata != "" {
			m.Metadata = &model.MessageMetadata{}
			if err := unmarshalJSON(metadata, m.Metadata); err != nil {
				return nil, err
			}
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
