package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a conversation message.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	UserID         string           `json:"user_id"`
	Role           Role             `json:"role"`
	Content        string           `json:"content"`
	Metadata       *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// MessageMetadata is attached to assistant messages that decided an action.
type MessageMetadata struct {
	Action       *Action        `json:"action,omitempty"`
	ActionResult *ActionResult  `json:"action_result,omitempty"`
	ActionError  string         `json:"action_error,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ChatRequest is the body of POST /coach/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
	ConfirmAction  bool   `json:"confirmAction,omitempty"`
}

// ChatResponse is the response of a coach turn.
type ChatResponse struct {
	Message              string        `json:"message"`
	Action               *Action       `json:"action"`
	ActionResult         *ActionResult `json:"actionResult"`
	ActionError          string        `json:"actionError,omitempty"`
	ConversationID       string        `json:"conversationId"`
	RequiresConfirmation bool          `json:"requiresConfirmation"`
}
