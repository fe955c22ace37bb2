package coach

import (
	"strings"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

// Route is what the gate does with a decided action.
type Route int

const (
	// RouteNone records and executes nothing.
	RouteNone Route = iota
	// RouteExecute runs the action within the turn.
	RouteExecute
	// RouteDefer records the action as pending until a confirmation turn.
	RouteDefer
)

func (r Route) String() string {
	switch r {
	case RouteExecute:
		return "execute"
	case RouteDefer:
		return "defer"
	default:
		return "none"
	}
}

// IsConfirmationTurn reports whether the turn confirms a pending action: either the
// explicit flag is set or the message is exactly "yes" or "confirm".
func IsConfirmationTurn(message string, confirmFlag bool) bool {
	if confirmFlag {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "yes", "confirm":
		return true
	}
	return false
}

// Decide routes an action.
func Decide(action *model.Action, confirmationTurn bool) Route {
	switch {
	case action.IsNone():
		return RouteNone
	case !action.RequiresConfirmation, confirmationTurn:
		return RouteExecute
	default:
		return RouteDefer
	}
}
