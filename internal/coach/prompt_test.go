package coach

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

func history(n int) []model.Message {
	list := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		list = append(list, model.Message{Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return list
}

func TestBuildPrompt_Window(t *testing.T) {
	b := &model.ContextBundle{Profile: model.Profile{Name: "sam"}, AssembledAt: time.Now()}

	system, messages := BuildPrompt(b, history(12), "what next?")
	assert.True(t, strings.HasPrefix(system, coachInstructions))

	require.Len(t, messages, historyWindow+1)
	assert.Equal(t, "message 4", messages[0].Content)
	assert.Equal(t, "message 11", messages[historyWindow-1].Content)
	last := messages[len(messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "what next?", last.Content)
}

func TestBuildPrompt_SkipsSystemMessages(t *testing.T) {
	b := &model.ContextBundle{AssembledAt: time.Now()}
	hist := []model.Message{
		{Role: model.RoleSystem, Content: "internal"},
		{Role: model.RoleUser, Content: "hi"},
	}
	_, messages := BuildPrompt(b, hist, "again")
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
}

func TestBuildPrompt_InstructionsAreStable(t *testing.T) {
	a := &model.ContextBundle{Profile: model.Profile{Name: "a"}, AssembledAt: time.Now()}
	b := &model.ContextBundle{Profile: model.Profile{Name: "b"}, AssembledAt: time.Now()}

	sa, _ := BuildPrompt(a, nil, "x")
	sb, _ := BuildPrompt(b, nil, "y")
	assert.Equal(t, sa[:len(coachInstructions)], sb[:len(coachInstructions)])
	for _, typ := range model.ActionTypes() {
		assert.Contains(t, coachInstructions, string(typ))
	}
}

func TestRenderContext_Truncates(t *testing.T) {
	b := &model.ContextBundle{
		Profile:     model.Profile{Name: "sam"},
		Goals:       &model.Goals{GoalType: "lose_weight", StartingWeight: 90, GoalWeight: 80, Benchmarks: []model.Benchmark{{Exercise: "Squat", CurrentWeight: 100, CurrentReps: 5}}},
		AssembledAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 8; i++ {
		day := fmt.Sprintf("2024-03-%02d", 15-i)
		b.Logs.Weights = append(b.Logs.Weights, model.WeightLog{Weight: 80 + float64(i), Date: day})
		b.Logs.Activities = append(b.Logs.Activities, model.ActivityLog{WorkoutType: "run", Description: "run " + day, Date: day})
	}
	b.WorkoutSessions = []model.WorkoutSession{{
		Name: "Push day",
		Date: "2024-03-14",
		Exercises: []model.SessionExercise{
			{Name: "e1"}, {Name: "e2"}, {Name: "e3"}, {Name: "e4"}, {Name: "e5"},
		},
	}}

	out := RenderContext(b)
	assert.Contains(t, out, "## User context (as of 2024-03-15)")
	assert.Contains(t, out, "Name: sam")
	assert.Contains(t, out, "Benchmark Squat: 100.0 x 5")
	assert.Contains(t, out, "- 2024-03-11: 84.0")
	assert.NotContains(t, out, "- 2024-03-10: 85.0")
	assert.Contains(t, out, "run 2024-03-13")
	assert.NotContains(t, out, "run 2024-03-12")
	assert.Contains(t, out, "e4")
	assert.NotContains(t, out, "e5")
	assert.NotContains(t, out, "## Recent meals")
}
