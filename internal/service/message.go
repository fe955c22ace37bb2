package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// MessageService handles message operations.
type MessageService struct {
	store         *store.Store
	conversations *ConversationService
	now           func() time.Time
}

// NewMessageService creates a new message service.
func NewMessageService(st *store.Store, conversations *ConversationService) *MessageService {
	return &MessageService{
		store:         st,
		conversations: conversations,
		now:           time.Now,
	}
}

// SaveTurn appends the user message and then the assistant message of one turn. The
// assistant row is timestamped after the user row so chronological order is stable.
func (s *MessageService) SaveTurn(ctx context.Context, conv *model.Conversation, userContent, assistantContent string, meta *model.MessageMetadata) error {
	now := s.now()

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Role:           model.RoleUser,
		Content:        userContent,
		CreatedAt:      now,
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to save user message: %w", err)
	}

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Role:           model.RoleAssistant,
		Content:        assistantContent,
		Metadata:       meta,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		return fmt.Errorf("failed to save assistant message: %w", err)
	}
	return nil
}

// GetMessages retrieves the messages of a conversation owned by userID, oldest first.
func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID string, limit int) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversationID,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}

	return &model.ListMessagesResponse{
		ConversationID: conversationID,
		Messages:       messages,
	}, nil
}
