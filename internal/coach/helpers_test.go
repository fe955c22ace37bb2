package coach

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

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/fitness-coach/internal/llm"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/service"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

const testUser = "user-1"

type fakeLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return &llm.CompletionResponse{Content: "Keep it up!", Model: "fake"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return &llm.CompletionResponse{Content: reply, Model: "fake"}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type collabCall struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// fakeCollaborator stands in for the logging and plan endpoints.
type fakeCollaborator struct {
	mu     sync.Mutex
	calls  []collabCall
	status int
	errMsg string
}

func (f *fakeCollaborator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, collabCall{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
	status, errMsg := f.status, f.errMsg
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": errMsg})
		return
	}

	w.WriteHeader(http.StatusCreated)
	switch r.URL.Path {
	case PathGeneratePlan:
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "plan-1", "week_number": 3, "plan_type": "workout"})
	default:
		resp := map[string]any{"id": "log-1"}
		for k, v := range body {
			resp[k] = v
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// fail makes every following call return status with errMsg as the error payload.
func (f *fakeCollaborator) fail(status int, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.errMsg = status, errMsg
}

func (f *fakeCollaborator) Calls() []collabCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]collabCall(nil), f.calls...)
}

type harness struct {
	store  *store.Store
	llm    *fakeLLM
	collab *fakeCollaborator
	svc    *Service
	exec   *Executor
	rc     RequestContext
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Nop()
	st := newStore(t)

	collab := &fakeCollaborator{}
	srv := httptest.NewServer(collab)
	t.Cleanup(srv.Close)

	fake := &fakeLLM{}
	exec := NewExecutor(NewCollaborator(srv.URL, 5*time.Second), st)
	conversations := service.NewConversationService(st, log)
	svc := NewService(Deps{
		LLM:           fake,
		Assembler:     NewAssembler(st, log),
		Executor:      exec,
		Ledger:        NewLedger(st, log),
		Conversations: conversations,
		Messages:      service.NewMessageService(st, conversations),
	}, Options{MaxTokens: 1000, Temperature: 0.7, PendingTTL: 24 * time.Hour}, log)

	return &harness{
		store:  st,
		llm:    fake,
		collab: collab,
		svc:    svc,
		exec:   exec,
		rc:     RequestContext{UserID: testUser, Email: "sam@example.com", AuthToken: "token-1"},
	}
}

func (h *harness) actions(t *testing.T) []*model.ActionRecord {
	t.Helper()
	list, err := h.store.ListActions(context.Background(), &store.FindAction{UserID: testUser})
	require.NoError(t, err)
	return list
}

func (h *harness) messages(t *testing.T) []model.Message {
	t.Helper()
	user := testUser
	list, err := h.store.ListMessages(context.Background(), &store.FindMessage{UserID: &user})
	require.NoError(t, err)
	return list
}

var errBoom = errors.New("boom")
