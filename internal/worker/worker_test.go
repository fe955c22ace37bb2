package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

const testUser = "user-1"

type fixture struct {
	store     *store.Store
	processor *Processor
	mu        sync.Mutex
	calls     []string
	auth      []string
	status    int
}

func (f *fixture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.URL.Path)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "collaborator down"})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": "plan-9", "week_number": 12})
}

func (f *fixture) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fixture) Auth() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func newFixture(t *testing.T, issue TokenIssuer) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{store: st}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	if issue == nil {
		issue = func(userID, _ string) (string, error) { return "service-" + userID, nil }
	}
	log := logger.Nop()
	assembler := coach.NewAssembler(st, log)
	f.processor = NewProcessor(
		st,
		coach.NewExecutor(coach.NewCollaborator(srv.URL, 5*time.Second), st),
		coach.NewLedger(st, log),
		coach.NewSnapshotter(assembler, st),
		issue,
		log,
	)
	return f
}

func (f *fixture) pending(t *testing.T, userID string, typ model.ActionType, params map[string]any) *model.ActionRecord {
	t.Helper()
	rec := &model.ActionRecord{
		ID:             uuid.Must(uuid.NewV7()).String(),
		UserID:         userID,
		ConversationID: uuid.Must(uuid.NewV7()).String(),
		ActionType:     typ,
		TargetTable:    typ.TargetTable(),
		Payload:        model.ActionPayload{Parameters: params, RequiresConfirmation: true},
		Status:         model.ActionStatusPending,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, f.store.CreateAction(context.Background(), rec))
	return rec
}

func job(rec *model.ActionRecord) *model.ActionJob {
	return &model.ActionJob{ActionID: rec.ID, UserID: rec.UserID, EnqueuedAt: time.Now()}
}

func TestProcess_ExecutesPendingActionOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec := f.pending(t, testUser, model.ActionGeneratePlans, map[string]any{"focus": "strength"})

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)))
	assert.Equal(t, []string{coach.PathGeneratePlan}, f.Calls())
	assert.Equal(t, []string{"Bearer service-user-1"}, f.Auth())

	got, err := f.store.GetAction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusCompleted, got.Status)
	assert.Equal(t, "plan-9", got.TargetID)
	assert.NotNil(t, got.ClaimedAt)

	snap, err := f.store.GetContextSnapshot(ctx, testUser)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Summary)

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)), "redelivery is acked")
	assert.Len(t, f.Calls(), 1, "redelivery does not execute again")
}

func TestProcess_DirectStoreAction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec := f.pending(t, testUser, model.ActionAdjustGoals, map[string]any{"goal_weight": 72.5})

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)))
	assert.Empty(t, f.Calls())

	goals, err := f.store.GetGoals(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 72.5, goals.GoalWeight)
}

func TestProcess_FailedActionIsFinished(t *testing.T) {
	f := newFixture(t, nil)
	f.mu.Lock()
	f.status = http.StatusBadGateway
	f.mu.Unlock()
	ctx := context.Background()
	rec := f.pending(t, testUser, model.ActionGeneratePlans, nil)

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)))

	got, err := f.store.GetAction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "collaborator down")

	_, err = f.store.GetContextSnapshot(ctx, testUser)
	assert.ErrorIs(t, err, store.ErrNotFound, "no snapshot refresh after a failure")
}

func TestProcess_TokenFailureFinishesRow(t *testing.T) {
	f := newFixture(t, func(string, string) (string, error) { return "", errors.New("no signing key") })
	ctx := context.Background()
	rec := f.pending(t, testUser, model.ActionGeneratePlans, nil)

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)))
	assert.Empty(t, f.Calls())

	got, err := f.store.GetAction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "no signing key")
}

func TestProcess_RejectsJobs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, Term, f.processor.Process(ctx, &model.ActionJob{ActionID: "missing", UserID: testUser}))

	rec := f.pending(t, "user-2", model.ActionGeneratePlans, nil)
	assert.Equal(t, Term, f.processor.Process(ctx, &model.ActionJob{ActionID: rec.ID, UserID: testUser}))

	got, err := f.store.GetAction(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, got.Status)
	assert.Nil(t, got.ClaimedAt)
	assert.Empty(t, f.Calls())
}

func TestProcess_LostClaimIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rec := f.pending(t, testUser, model.ActionGeneratePlans, nil)

	claimed, err := f.store.ClaimAction(ctx, rec.ID, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)

	assert.Equal(t, Ack, f.processor.Process(ctx, job(rec)))
	assert.Empty(t, f.Calls())
}

func TestProcess_StoreUnavailableNaks(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Close())

	assert.Equal(t, Nak, f.processor.Process(context.Background(), &model.ActionJob{ActionID: "a", UserID: testUser}))
}

type fakeMsg struct {
	jetstream.Msg
	data    []byte
	settled []string
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack() error   { m.settled = append(m.settled, "ack"); return nil }
func (m *fakeMsg) Nak() error   { m.settled = append(m.settled, "nak"); return nil }
func (m *fakeMsg) Term() error  { m.settled = append(m.settled, "term"); return nil }

type fakeBatch struct {
	msgs chan jetstream.Msg
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg { return b.msgs }
func (b *fakeBatch) Error() error                   { return nil }

// fakeFetcher serves the queued messages once, then reports an empty queue.
type fakeFetcher struct {
	mu      sync.Mutex
	pending []jetstream.Msg
	fetches int
}

func (f *fakeFetcher) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if len(f.pending) == 0 {
		return nil, jetstream.ErrNoMessages
	}
	ch := make(chan jetstream.Msg, len(f.pending))
	for _, m := range f.pending {
		ch <- m
	}
	close(ch)
	f.pending = nil
	return &fakeBatch{msgs: ch}, nil
}

func (f *fakeFetcher) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestConsumerRun(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.pending(t, testUser, model.ActionGeneratePlans, nil)
	data, err := json.Marshal(job(rec))
	require.NoError(t, err)

	good := &fakeMsg{data: data}
	bad := &fakeMsg{data: []byte("{")}
	fetcher := &fakeFetcher{pending: []jetstream.Msg{good, bad}}
	c := NewConsumer(fetcher, f.processor, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.Fetches() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, []string{"ack"}, good.settled)
	assert.Equal(t, []string{"term"}, bad.settled)

	got, err := f.store.GetAction(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusCompleted, got.Status)
}

func TestHandleNaksDuringShutdown(t *testing.T) {
	f := newFixture(t, nil)
	c := NewConsumer(&fakeFetcher{}, f.processor, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg := &fakeMsg{data: []byte(`{"action_id":"a","user_id":"u"}`)}
	c.handle(ctx, msg)
	assert.Equal(t, []string{"nak"}, msg.settled)
}
