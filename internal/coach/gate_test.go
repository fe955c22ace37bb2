package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

func TestIsConfirmationTurn(t *testing.T) {
	assert.True(t, IsConfirmationTurn("yes", false))
	assert.True(t, IsConfirmationTurn("  Confirm ", false))
	assert.True(t, IsConfirmationTurn("YES", false))
	assert.True(t, IsConfirmationTurn("anything", true))
	assert.False(t, IsConfirmationTurn("yes please", false))
	assert.False(t, IsConfirmationTurn("sure", false))
	assert.False(t, IsConfirmationTurn("", false))
}

func TestDecide(t *testing.T) {
	gated := &model.Action{Type: model.ActionAdjustGoals, RequiresConfirmation: true}
	direct := &model.Action{Type: model.ActionLogMeal}

	tests := []struct {
		name       string
		action     *model.Action
		confirming bool
		want       Route
	}{
		{"nil action", nil, false, RouteNone},
		{"none", &model.Action{Type: model.ActionNone}, true, RouteNone},
		{"direct", direct, false, RouteExecute},
		{"direct on confirmation turn", direct, true, RouteExecute},
		{"gated", gated, false, RouteDefer},
		{"gated on confirmation turn", gated, true, RouteExecute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.action, tt.confirming))
		})
	}
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "none", RouteNone.String())
	assert.Equal(t, "execute", RouteExecute.String())
	assert.Equal(t, "defer", RouteDefer.String())
}
