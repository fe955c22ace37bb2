// Package model defines data structures for the fitness coach.
package model

import (
	"time"
)

// Conversation represents a coach conversation thread.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMessagesResponse is the response for listing conversation messages.
type ListMessagesResponse struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}
