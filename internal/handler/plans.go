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

// PlanHandler handles the plan endpoints.
type PlanHandler struct {
	service *service.PlanService
	logger  *logger.Logger
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(svc *service.PlanService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListActive(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.Error("failed to list plans", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// Generate handles POST /plans/generate
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GeneratePlanRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if !validDate(w, req.StartDate) {
		return
	}

	plan, err := h.service.Generate(r.Context(), middleware.GetUserID(r.Context()), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, plan)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanGeneration):
		writeError(w, http.StatusBadGateway, "failed to generate plan")
	default:
		h.logger.Error("failed to generate plan", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate plan")
	}
}
