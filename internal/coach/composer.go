package coach

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// AlreadyInProgress answers a confirmation for an action that is already being carried out.
const AlreadyInProgress = "That one is already being taken care of, so I won't run it a second time."

// Compose appends at most one annotation to the cleaned reply: a success note, an
// apology with the error, or a confirmation question.
func Compose(text string, o *Outcome) string {
	if o == nil || o.Route == RouteNone {
		return text
	}

	var note string
	switch o.Status() {
	case model.ActionStatusCompleted:
		note = "✅ " + o.Result.Message
	case model.ActionStatusFailed:
		reason := o.UserMessage()
		if reason == "" && o.Result != nil {
			reason = o.Result.Message
		}
		note = fmt.Sprintf("Sorry, I wasn't able to %s: %s", describe(o.Action), reason)
	case model.ActionStatusPending:
		note = fmt.Sprintf("Reply \"yes\" to confirm, or tell me what to change. Shall I go ahead and %s?", describe(o.Action))
	}

	return appendNote(text, note)
}

func appendNote(text, note string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return note
	}
	return text + "\n\n" + note
}

func describe(a *model.Action) string {
	switch a.Type {
	case model.ActionGeneratePlans:
		return "generate a new weekly workout plan"
	case model.ActionUpdatePlan:
		return "update your plan"
	case model.ActionLogWorkout:
		return "log this workout"
	case model.ActionLogMeal:
		return "log this meal"
	case model.ActionLogWeight:
		return "log your weight"
	case model.ActionLogMood:
		return "log your mood"
	case model.ActionAdjustGoals:
		return "update your goals"
	case model.ActionUpdateBenchmark:
		return "update this benchmark"
	default:
		return "do that"
	}
}
