package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/middleware"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

// ActionQueue hands confirmed pending actions to the worker.
type ActionQueue interface {
	Enqueue(ctx context.Context, job *model.ActionJob) (uint64, error)
}

// CoachHandler handles the coach endpoints.
type CoachHandler struct {
	coach  *coach.Service
	store  *store.Store
	queue  ActionQueue
	logger *logger.Logger
}

// NewCoachHandler creates a new coach handler. queue may be nil when no worker is
// deployed; asynchronous confirmation then answers 503.
func NewCoachHandler(svc *coach.Service, st *store.Store, queue ActionQueue, log *logger.Logger) *CoachHandler {
	return &CoachHandler{
		coach:  svc,
		store:  st,
		queue:  queue,
		logger: log,
	}
}

// Chat handles POST /coach/chat
func (h *CoachHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message != "" {
		if err := middleware.ValidateMessageContent(req.Message); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.coach.Chat(r.Context(), requestContext(r), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, coach.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, coach.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coach.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	default:
		h.logger.Error("coach turn failed",
			zap.String("correlation_id", logger.CorrelationID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "failed to process message",
			"message": coach.FallbackApology,
		})
	}
}

// Context handles GET /coach/context
func (h *CoachHandler) Context(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.GetContextSnapshot(r.Context(), middleware.GetUserID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "context snapshot not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get context snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get context")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListActions handles GET /coach/actions
// Supports ?status=pending|completed|failed and ?limit=N
func (h *CoachHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	find := &store.FindAction{
		UserID: middleware.GetUserID(r.Context()),
		Limit:  queryLimit(r, 50, 200),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := model.ActionStatus(s)
		switch status {
		case model.ActionStatusPending, model.ActionStatusCompleted, model.ActionStatusFailed:
			find.Status = &status
		default:
			writeError(w, http.StatusBadRequest, "status must be pending, completed or failed")
			return
		}
	}

	list, err := h.store.ListActions(r.Context(), find)
	if err != nil {
		h.logger.Error("failed to list actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	if list == nil {
		list = []*model.ActionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": list})
}

// ConfirmAction handles POST /coach/actions/{id}/confirm
func (h *CoachHandler) ConfirmAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	actionID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(actionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "action queue unavailable")
		return
	}

	rec, err := h.store.GetAction(ctx, actionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to get action", zap.String("action_id", actionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get action")
		return
	}
	if rec == nil || rec.UserID != userID || rec.Status != model.ActionStatusPending {
		writeError(w, http.StatusNotFound, "pending action not found")
		return
	}

	job := &model.ActionJob{ActionID: rec.ID, UserID: userID, EnqueuedAt: time.Now()}
	if _, err := h.queue.Enqueue(ctx, job); err != nil {
		h.logger.Error("failed to enqueue action", zap.String("action_id", actionID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "failed to queue action")
		return
	}

	h.logger.Info("action queued",
		zap.String("action_id", rec.ID),
		zap.String("user_id", userID),
		zap.String("type", string(rec.ActionType)),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "action_id": rec.ID})
}
