package model

import (
	"time"
)

// ActionType is the closed set of operations the coach may decide to perform.
type ActionType string

const (
	ActionGeneratePlans   ActionType = "GENERATE_PLANS"
	ActionUpdatePlan      ActionType = "UPDATE_PLAN"
	ActionLogWorkout      ActionType = "LOG_WORKOUT"
	ActionLogMeal         ActionType = "LOG_MEAL"
	ActionLogWeight       ActionType = "LOG_WEIGHT"
	ActionLogMood         ActionType = "LOG_MOOD"
	ActionAdjustGoals     ActionType = "ADJUST_GOALS"
	ActionUpdateBenchmark ActionType = "UPDATE_BENCHMARK"
	ActionNone            ActionType = "NONE"
)

// ActionTypes returns every action type, NONE included.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionGeneratePlans,
		ActionUpdatePlan,
		ActionLogWorkout,
		ActionLogMeal,
		ActionLogWeight,
		ActionLogMood,
		ActionAdjustGoals,
		ActionUpdateBenchmark,
		ActionNone,
	}
}

// Valid reports whether t is a member of the closed action set.
func (t ActionType) Valid() bool {
	for _, known := range ActionTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// TargetTable names the table an action mutates, recorded on the ledger row.
func (t ActionType) TargetTable() string {
	switch t {
	case ActionGeneratePlans, ActionUpdatePlan:
		return "plans"
	case ActionLogWorkout:
		return "activity_logs"
	case ActionLogMeal:
		return "meal_logs"
	case ActionLogWeight:
		return "weight_logs"
	case ActionLogMood:
		return "mood_logs"
	case ActionAdjustGoals, ActionUpdateBenchmark:
		return "goals"
	default:
		return ""
	}
}

// Action is the structured decision embedded in a model reply.
type Action struct {
	Type                 ActionType     `json:"type"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
	Parameters           map[string]any `json:"parameters,omitempty"`
	Reasoning            string         `json:"reasoning,omitempty"`
}

// IsNone reports whether the action decides nothing.
func (a *Action) IsNone() bool {
	return a == nil || a.Type == ActionNone || a.Type == ""
}

// ActionResult is the uniform result shape returned by every action handler.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ActionStatus is the lifecycle state of a ledger row.
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// ActionPayload is stored as JSON on the ledger row.
type ActionPayload struct {
	Parameters           map[string]any `json:"parameters,omitempty"`
	Reasoning            string         `json:"reasoning,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	Result               *ActionResult  `json:"result,omitempty"`
	Error                string         `json:"error,omitempty"`
}

// ActionRecord is a ledger entry for a decided action.
type ActionRecord struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	ConversationID string        `json:"conversation_id"`
	ActionType     ActionType    `json:"action_type"`
	TargetTable    string        `json:"target_table,omitempty"`
	TargetID       string        `json:"target_id,omitempty"`
	Payload        ActionPayload `json:"payload"`
	Status         ActionStatus  `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	ClaimedAt      *time.Time    `json:"claimed_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Action rebuilds the decided action from the ledger row.
func (r *ActionRecord) Action() *Action {
	return &Action{
		Type:                 r.ActionType,
		RequiresConfirmation: r.Payload.RequiresConfirmation,
		Parameters:           r.Payload.Parameters,
		Reasoning:            r.Payload.Reasoning,
	}
}

// ActionJob is the queue message handed to the worker pipeline.
type ActionJob struct {
	ActionID   string    `json:"action_id"`
	UserID     string    `json:"user_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
