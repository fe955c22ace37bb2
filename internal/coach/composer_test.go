package coach

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

func TestCompose(t *testing.T) {
	logMeal := &model.Action{Type: model.ActionLogMeal}
	newPlan := &model.Action{Type: model.ActionGeneratePlans, RequiresConfirmation: true}

	tests := []struct {
		name    string
		text    string
		outcome *Outcome
		want    string
	}{
		{"no outcome", "Hello", nil, "Hello"},
		{"route none", "Hello", &Outcome{Route: RouteNone}, "Hello"},
		{
			name:    "success",
			text:    "Nice lunch.",
			outcome: &Outcome{Action: logMeal, Route: RouteExecute, Result: &model.ActionResult{Success: true, Message: "Logged your lunch: salad."}},
			want:    "Nice lunch.\n\n✅ Logged your lunch: salad.",
		},
		{
			name:    "failure",
			text:    "Nice lunch.",
			outcome: &Outcome{Action: logMeal, Route: RouteExecute, Err: &CollaboratorError{Status: 400, Message: "calories must not be negative"}},
			want:    "Nice lunch.\n\nSorry, I wasn't able to log this meal: calories must not be negative",
		},
		{
			name:    "transport failure",
			text:    "Nice lunch.",
			outcome: &Outcome{Action: logMeal, Route: RouteExecute, Err: errors.New(`failed to call /logs/meal: Post "http://10.0.0.7:8080/logs/meal": dial tcp: connection refused`)},
			want:    "Nice lunch.\n\nSorry, I wasn't able to log this meal: " + unavailableReason,
		},
		{
			name:    "pending",
			text:    "I can build a new plan.",
			outcome: &Outcome{Action: newPlan, Route: RouteDefer},
			want:    "I can build a new plan.\n\nReply \"yes\" to confirm, or tell me what to change. Shall I go ahead and generate a new weekly workout plan?",
		},
		{
			name:    "empty text",
			text:    "  ",
			outcome: &Outcome{Action: logMeal, Route: RouteExecute, Result: &model.ActionResult{Success: true, Message: "Logged."}},
			want:    "✅ Logged.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.text, tt.outcome))
		})
	}
}

func TestOutcomeStatus(t *testing.T) {
	ok := &model.ActionResult{Success: true}
	assert.Equal(t, model.ActionStatusPending, (&Outcome{Route: RouteDefer}).Status())
	assert.Equal(t, model.ActionStatusCompleted, (&Outcome{Route: RouteExecute, Result: ok}).Status())
	assert.Equal(t, model.ActionStatusFailed, (&Outcome{Route: RouteExecute}).Status())
	assert.Equal(t, model.ActionStatusFailed, (&Outcome{Route: RouteExecute, Result: &model.ActionResult{}}).Status())
	assert.Equal(t, model.ActionStatusFailed, (&Outcome{Route: RouteExecute, Result: ok, Err: errBoom}).Status())
	assert.Empty(t, (&Outcome{}).ErrorMessage())
}

func TestOutcomeUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"none", nil, ""},
		{"collaborator", fmt.Errorf("failed to log weight: %w", &CollaboratorError{Status: 400, Message: "weight must be positive"}), "weight must be positive"},
		{"parameter", invalidParam("mood is required"), "mood is required"},
		{"transport", errors.New(`Post "http://internal:8080/logs/weight": dial tcp: i/o timeout`), unavailableReason},
		{"store", errors.New("failed to insert mood log: database is locked"), unavailableReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Outcome{Route: RouteExecute, Err: tt.err}
			assert.Equal(t, tt.want, o.UserMessage())
		})
	}
}
