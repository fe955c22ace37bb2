package coach

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/fitness-coach/internal/llm"
	"github.com/capitalize-ai/fitness-coach/internal/model"
)

const logWorkoutReply = "Great work on the bench press!\n```json\n" +
	`{"action":{"type":"LOG_WORKOUT","requiresConfirmation":false,"parameters":{"workout_type":"strength","description":"Bench press 3x8 @60kg"}}}` +
	"\n```"

const regeneratePlanReply = "I can put together a fresh week for you.\n```json\n" +
	`{"action":{"type":"GENERATE_PLANS","requiresConfirmation":true,"parameters":{"focus":"strength"},"reasoning":"User asked for a new plan."}}` +
	"\n```"

func chat(h *harness, message, conversationID string) (*model.ChatResponse, error) {
	return h.svc.Chat(context.Background(), h.rc, &model.ChatRequest{
		Message:        message,
		UserID:         testUser,
		ConversationID: conversationID,
	})
}

func TestChat_LogWorkoutExecutesImmediately(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{logWorkoutReply}

	resp, err := chat(h, "I did bench press 3 sets of 8 at 60kg", "")
	require.NoError(t, err)

	require.NotNil(t, resp.Action)
	assert.Equal(t, model.ActionLogWorkout, resp.Action.Type)
	require.NotNil(t, resp.ActionResult)
	assert.True(t, resp.ActionResult.Success)
	assert.Empty(t, resp.ActionError)
	assert.False(t, resp.RequiresConfirmation)
	assert.NotEmpty(t, resp.ConversationID)
	assert.True(t, strings.HasPrefix(resp.Message, "Great work on the bench press!"))
	assert.NotContains(t, resp.Message, "```")
	assert.Contains(t, resp.Message, "✅ Logged your strength workout")

	calls := h.collab.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, PathLogActivity, calls[0].Path)
	assert.Equal(t, "Bearer token-1", calls[0].Auth)
	assert.Equal(t, "strength", calls[0].Body["workout_type"])
	assert.Equal(t, "Bench press 3x8 @60kg", calls[0].Body["description"])
	assert.Equal(t, time.Now().UTC().Format(model.DateLayout), calls[0].Body["date"])

	actions := h.actions(t)
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionStatusCompleted, actions[0].Status)
	assert.Equal(t, "log-1", actions[0].TargetID)
	assert.Equal(t, "activity_logs", actions[0].TargetTable)
	assert.Equal(t, resp.ConversationID, actions[0].ConversationID)
	assert.NotNil(t, actions[0].CompletedAt)

	msgs := h.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "I did bench press 3 sets of 8 at 60kg", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Message, msgs[1].Content)
	require.NotNil(t, msgs[1].Metadata)
	assert.Equal(t, model.ActionLogWorkout, msgs[1].Metadata.Action.Type)
}

func TestChat_DeferThenConfirm(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{regeneratePlanReply, "On it, building your plan now."}

	first, err := chat(h, "regenerate my plan", "")
	require.NoError(t, err)
	assert.True(t, first.RequiresConfirmation)
	assert.Nil(t, first.ActionResult)
	assert.True(t, strings.HasSuffix(first.Message, "?"), first.Message)
	assert.Contains(t, first.Message, "generate a new weekly workout plan")
	assert.Empty(t, h.collab.Calls(), "no plan mutation before confirmation")

	actions := h.actions(t)
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionStatusPending, actions[0].Status)
	assert.Equal(t, "strength", actions[0].Payload.Parameters["focus"])

	second, err := chat(h, "yes", first.ConversationID)
	require.NoError(t, err)
	assert.False(t, second.RequiresConfirmation)
	require.NotNil(t, second.Action)
	assert.Equal(t, model.ActionGeneratePlans, second.Action.Type)
	require.NotNil(t, second.ActionResult)
	assert.True(t, second.ActionResult.Success)
	assert.Contains(t, second.Message, "week 3")

	calls := h.collab.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, PathGeneratePlan, calls[0].Path)
	assert.Equal(t, "strength", calls[0].Body["focus"])

	actions = h.actions(t)
	require.Len(t, actions, 1, "the pending row is resolved in place")
	assert.Equal(t, model.ActionStatusCompleted, actions[0].Status)
	assert.Equal(t, "plan-1", actions[0].TargetID)

	assert.Len(t, h.messages(t), 4)
}

func TestChat_CompletionFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.llm.err = fmt.Errorf("%w: status 500", llm.ErrUpstream)

	resp, err := chat(h, "how am I doing?", "")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrUpstream)

	assert.Empty(t, h.actions(t))
	assert.Empty(t, h.messages(t))
	assert.Empty(t, h.collab.Calls())
}

func TestChat_NoActionStillWritesTwoMessages(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{"Protein helps recovery. Aim for about 1.6 g per kg."}

	resp, err := chat(h, "why protein?", "")
	require.NoError(t, err)
	assert.Nil(t, resp.Action)
	assert.Nil(t, resp.ActionResult)
	assert.Equal(t, "Protein helps recovery. Aim for about 1.6 g per kg.", resp.Message)

	assert.Empty(t, h.actions(t))
	msgs := h.messages(t)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[1].Metadata)
}

func TestChat_HandlerFailureIsEmbedded(t *testing.T) {
	h := newHarness(t)
	h.collab.fail(http.StatusInternalServerError, "database unavailable")
	h.llm.replies = []string{logWorkoutReply}

	resp, err := chat(h, "I did bench press", "")
	require.NoError(t, err)
	require.NotNil(t, resp.ActionResult)
	assert.False(t, resp.ActionResult.Success)
	assert.Contains(t, resp.ActionError, "database unavailable")
	assert.Contains(t, resp.Message, "Sorry, I wasn't able to log this workout")
	assert.NotContains(t, resp.Message, "✅")

	actions := h.actions(t)
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionStatusFailed, actions[0].Status)
	assert.Contains(t, actions[0].ErrorMessage, "database unavailable")
	assert.Len(t, h.messages(t), 2)
}

func TestChat_UnreachableCollaboratorStaysOutOfReply(t *testing.T) {
	h := newHarness(t)
	h.exec.collab = NewCollaborator("http://127.0.0.1:1", time.Second)
	h.llm.replies = []string{logWorkoutReply}

	resp, err := chat(h, "I did bench press", "")
	require.NoError(t, err)
	require.NotNil(t, resp.ActionResult)
	assert.False(t, resp.ActionResult.Success)
	assert.Contains(t, resp.Message, "Sorry, I wasn't able to log this workout")
	for _, visible := range []string{resp.Message, resp.ActionError, resp.ActionResult.Message} {
		assert.NotContains(t, visible, "127.0.0.1")
		assert.NotContains(t, visible, PathLogActivity)
	}

	actions := h.actions(t)
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionStatusFailed, actions[0].Status)
	assert.Contains(t, actions[0].ErrorMessage, PathLogActivity, "the ledger keeps the detail")
}

func TestChat_MalformedActionBlockKeepsReply(t *testing.T) {
	h := newHarness(t)
	reply := "Logged!\n```json\n{\"action\": {\"type\": \"LOG_WORKOUT\",\n```"
	h.llm.replies = []string{reply}

	resp, err := chat(h, "bench day", "")
	require.NoError(t, err)
	assert.Equal(t, reply, resp.Message)
	assert.Nil(t, resp.Action)
	assert.Empty(t, h.actions(t))
	assert.Empty(t, h.collab.Calls())
}

func TestChat_RequestValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		rc   RequestContext
		req  model.ChatRequest
		want error
	}{
		{"missing identity", RequestContext{}, model.ChatRequest{Message: "hi", UserID: testUser}, ErrUnauthorized},
		{"missing message", h.rc, model.ChatRequest{Message: "  ", UserID: testUser}, ErrValidation},
		{"missing user id", h.rc, model.ChatRequest{Message: "hi"}, ErrValidation},
		{"identity mismatch", h.rc, model.ChatRequest{Message: "hi", UserID: "someone-else"}, ErrUnauthorized},
		{"unknown conversation", h.rc, model.ChatRequest{Message: "hi", UserID: testUser, ConversationID: "nope"}, ErrConversationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := h.svc.Chat(context.Background(), tt.rc, &req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, h.llm.requests, "aborted turns never reach the completion service")
	assert.Empty(t, h.messages(t))
}

func TestChat_OtherUsersConversationIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	conv := &model.Conversation{ID: uuid.Must(uuid.NewV7()).String(), UserID: "user-2", CreatedAt: time.Now()}
	require.NoError(t, h.store.CreateConversation(context.Background(), conv))

	_, err := chat(h, "hi", conv.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChat_StalePendingIsIgnored(t *testing.T) {
	h := newHarness(t)
	stale := &model.ActionRecord{
		ID:             uuid.Must(uuid.NewV7()).String(),
		UserID:         testUser,
		ConversationID: "old-conversation",
		ActionType:     model.ActionGeneratePlans,
		Payload:        model.ActionPayload{RequiresConfirmation: true},
		Status:         model.ActionStatusPending,
		CreatedAt:      time.Now().Add(-72 * time.Hour),
	}
	require.NoError(t, h.store.CreateAction(context.Background(), stale))
	h.llm.replies = []string{"Sure thing."}

	resp, err := chat(h, "yes", "")
	require.NoError(t, err)
	assert.Nil(t, resp.Action)
	assert.Empty(t, h.collab.Calls())

	got, err := h.store.GetAction(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, got.Status)
}

func TestChat_ConfirmSkipsActionClaimedByWorker(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	// The model restates the plan on the "yes" turn too.
	h.llm.replies = []string{regeneratePlanReply, regeneratePlanReply}

	first, err := chat(h, "regenerate my plan", "")
	require.NoError(t, err)
	actions := h.actions(t)
	require.Len(t, actions, 1)
	rec := actions[0]

	claimed, err := h.store.ClaimAction(ctx, rec.ID, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)
	o := h.exec.Run(ctx, h.rc, rec.Action())
	require.NoError(t, o.Err)
	require.Len(t, h.collab.Calls(), 1)

	second, err := chat(h, "yes", first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, h.collab.Calls(), 1, "a claimed row runs once")
	assert.Nil(t, second.Action)
	assert.Nil(t, second.ActionResult)
	assert.False(t, second.RequiresConfirmation)
	assert.True(t, strings.HasSuffix(second.Message, AlreadyInProgress), second.Message)

	actions = h.actions(t)
	require.Len(t, actions, 1, "no new ledger row for the skipped confirmation")
	assert.Equal(t, model.ActionStatusPending, actions[0].Status)
	assert.NotNil(t, actions[0].ClaimedAt)
	assert.Len(t, h.messages(t), 4)
}

func TestChat_ConfirmClaimsPendingRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.llm.replies = []string{regeneratePlanReply, "Building it now."}

	first, err := chat(h, "regenerate my plan", "")
	require.NoError(t, err)
	_, err = chat(h, "yes", first.ConversationID)
	require.NoError(t, err)
	require.Len(t, h.collab.Calls(), 1)

	rec := h.actions(t)[0]
	assert.Equal(t, model.ActionStatusCompleted, rec.Status)
	assert.NotNil(t, rec.ClaimedAt)

	claimed, err := h.store.ClaimAction(ctx, rec.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, claimed, "the worker cannot take a row the turn already ran")
}

func TestChat_ConfirmFlagExecutesFreshAction(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{regeneratePlanReply}

	resp, err := h.svc.Chat(context.Background(), h.rc, &model.ChatRequest{
		Message:       "make me a new plan, go ahead",
		UserID:        testUser,
		ConfirmAction: true,
	})
	require.NoError(t, err)
	assert.False(t, resp.RequiresConfirmation)
	require.NotNil(t, resp.ActionResult)
	assert.True(t, resp.ActionResult.Success)

	actions := h.actions(t)
	require.Len(t, actions, 1)
	assert.Equal(t, model.ActionStatusCompleted, actions[0].Status)
}

func TestChat_PromptCarriesHistoryAndInstructions(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{"First answer.", "Second answer."}

	first, err := chat(h, "first question", "")
	require.NoError(t, err)
	_, err = chat(h, "second question", first.ConversationID)
	require.NoError(t, err)

	require.Len(t, h.llm.requests, 2)
	assert.Equal(t, h.llm.requests[0].System[:len(coachInstructions)], h.llm.requests[1].System[:len(coachInstructions)])

	msgs := h.llm.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "second question", msgs[2].Content)
}
