package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/middleware"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/service"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

// LogHandler handles the logging endpoints.
type LogHandler struct {
	service *service.LogService
	logger  *logger.Logger
}

// NewLogHandler creates a new log handler.
func NewLogHandler(svc *service.LogService, log *logger.Logger) *LogHandler {
	return &LogHandler{
		service: svc,
		logger:  log,
	}
}

// Activity handles POST /logs/activity
func (h *LogHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var req model.LogActivityRequest
	if !decodeJSON(w, r, &req) || !validDate(w, req.Date) {
		return
	}
	entry, err := h.service.LogActivity(r.Context(), middleware.GetUserID(r.Context()), &req)
	h.respond(w, "activity", entry, err)
}

// Meal handles POST /logs/meal
func (h *LogHandler) Meal(w http.ResponseWriter, r *http.Request) {
	var req model.LogMealRequest
	if !decodeJSON(w, r, &req) || !validDate(w, req.Date) {
		return
	}
	entry, err := h.service.LogMeal(r.Context(), middleware.GetUserID(r.Context()), &req)
	h.respond(w, "meal", entry, err)
}

// Weight handles POST /logs/weight
func (h *LogHandler) Weight(w http.ResponseWriter, r *http.Request) {
	var req model.LogWeightRequest
	if !decodeJSON(w, r, &req) || !validDate(w, req.Date) {
		return
	}
	entry, err := h.service.LogWeight(r.Context(), middleware.GetUserID(r.Context()), &req)
	h.respond(w, "weight", entry, err)
}

func (h *LogHandler) respond(w http.ResponseWriter, kind string, entry any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, entry)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to log entry", zap.String("kind", kind), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log "+kind)
	}
}

// validDate rejects a malformed optional date before it reaches the service.
func validDate(w http.ResponseWriter, date string) bool {
	if err := middleware.ValidateDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
