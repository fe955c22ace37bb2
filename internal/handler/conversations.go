// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/middleware"
	"github.com/capitalize-ai/fitness-coach/internal/service"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(messages *service.MessageService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		messages: messages,
		logger:   log,
	}
}

// Messages handles GET /coach/conversations/{id}/messages
// Supports ?limit=N (default 50, max 200)
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.messages.GetMessages(ctx, middleware.GetUserID(ctx), conversationID, queryLimit(r, 50, 200))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		h.logger.Error("failed to get messages", zap.String("conversation_id", conversationID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get messages")
	}
}
