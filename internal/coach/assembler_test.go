package coach

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

func TestAssemble_RequiresIdentity(t *testing.T) {
	a := NewAssembler(newStore(t), logger.Nop())
	_, err := a.Assemble(context.Background(), RequestContext{}, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAssemble_SynthesizesProfile(t *testing.T) {
	a := NewAssembler(newStore(t), logger.Nop())
	b, err := a.Assemble(context.Background(), RequestContext{UserID: testUser, Email: "sam@example.com"}, "")
	require.NoError(t, err)

	assert.Equal(t, "sam", b.Profile.Name)
	assert.Equal(t, testUser, b.Profile.UserID)
	assert.Nil(t, b.Goals)
	assert.Empty(t, b.Logs.Weights)
	assert.Empty(t, b.RecentMessages)
	assert.Equal(t, model.ContextMetrics{}, b.Metrics)
}

func TestAssemble_LoadsState(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	today := now.Format(model.DateLayout)

	require.NoError(t, st.UpsertProfile(ctx, &model.Profile{UserID: testUser, Name: "Sam", CreatedAt: now}))
	weight := 85.0
	_, err := st.UpsertGoals(ctx, testUser, model.GoalsUpdate{StartingWeight: &weight}, now)
	require.NoError(t, err)
	require.NoError(t, st.CreateWeightLog(ctx, &model.WeightLog{ID: uuid.NewString(), UserID: testUser, Weight: 82, Date: today, CreatedAt: now}))
	require.NoError(t, st.CreateWeightLog(ctx, &model.WeightLog{
		ID: uuid.NewString(), UserID: testUser, Weight: 90, Date: now.AddDate(0, 0, -45).Format(model.DateLayout), CreatedAt: now,
	}))

	conv := &model.Conversation{ID: uuid.NewString(), UserID: testUser, CreatedAt: now}
	require.NoError(t, st.CreateConversation(ctx, conv))
	for i := 0; i < 12; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			UserID:         testUser,
			Role:           role,
			Content:        string(rune('a' + i)),
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		}))
	}

	a := NewAssembler(st, logger.Nop())
	b, err := a.Assemble(ctx, RequestContext{UserID: testUser}, conv.ID)
	require.NoError(t, err)

	assert.Equal(t, "Sam", b.Profile.Name)
	require.Len(t, b.Logs.Weights, 1, "logs older than 30 days are excluded")
	assert.Equal(t, 82.0, b.Metrics.CurrentWeight)
	assert.Equal(t, 3.0, b.Metrics.WeightLost)

	require.Len(t, b.RecentMessages, recentMessageLimit)
	assert.Equal(t, "c", b.RecentMessages[0].Content, "oldest of the last ten first")
	assert.Equal(t, "l", b.RecentMessages[len(b.RecentMessages)-1].Content)
}
