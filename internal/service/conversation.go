// Package service provides the business logic behind the coach's conversations and the
// logging and plan endpoints it collaborates with.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

var (
	// ErrConversationNotFound is returned for an unknown conversation id.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNotOwner is returned when a conversation belongs to another user.
	ErrNotOwner = errors.New("conversation belongs to another user")
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store  *store.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(st *store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log.Named("conversations"),
		now:    time.Now,
	}
}

// Resolve returns the caller's conversation. With an empty id a new conversation is
// built but not stored; the second return value reports that, and Create must be called
// once the turn is ready to persist.
func (s *ConversationService) Resolve(ctx context.Context, userID, conversationID string) (*model.Conversation, bool, error) {
	if conversationID == "" {
		return &model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			CreatedAt: s.now(),
		}, true, nil
	}

	conv, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, false, err
	}
	return conv, false, nil
}

// Create stores a conversation built by Resolve.
func (s *ConversationService) Create(ctx context.Context, conv *model.Conversation) error {
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return err
	}
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", conv.UserID),
	)
	return nil
}

// Get retrieves a conversation owned by userID.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrNotOwner
	}
	return conv, nil
}
