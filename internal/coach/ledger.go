package coach

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

// Outcome is what became of a decided action in one turn.
type Outcome struct {
	Action *model.Action
	Route  Route
	Result *model.ActionResult
	Err    error
}

// Status maps the outcome to a ledger status.
func (o *Outcome) Status() model.ActionStatus {
	switch {
	case o.Route == RouteDefer:
		return model.ActionStatusPending
	case o.Err != nil, o.Result == nil, !o.Result.Success:
		return model.ActionStatusFailed
	default:
		return model.ActionStatusCompleted
	}
}

// ErrorMessage returns the handler error text, or "".
func (o *Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// unavailableReason stands in for failures whose detail stays in the logs and the ledger.
const unavailableReason = "that service isn't available right now, please try again in a moment"

// UserMessage returns the handler error as it may be shown to the user: the
// collaborator's own error text, a parameter problem, or a generic reason.
func (o *Outcome) UserMessage() string {
	if o.Err == nil {
		return ""
	}
	var ce *CollaboratorError
	if errors.As(o.Err, &ce) {
		return ce.Message
	}
	var pe *ParamError
	if errors.As(o.Err, &pe) {
		return pe.Reason
	}
	return unavailableReason
}

// Ledger writes the audit trail of decided actions.
type Ledger struct {
	store  *store.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewLedger creates a ledger.
func NewLedger(st *store.Store, log *logger.Logger) *Ledger {
	return &Ledger{
		store:  st,
		logger: log.Named("ledger"),
		now:    time.Now,
	}
}

// Record writes one row for a freshly decided action.
func (l *Ledger) Record(ctx context.Context, userID, conversationID string, o *Outcome) (*model.ActionRecord, error) {
	now := l.now()
	rec := &model.ActionRecord{
		ID:             uuid.Must(uuid.NewV7()).String(),
		UserID:         userID,
		ConversationID: conversationID,
		ActionType:     o.Action.Type,
		TargetTable:    o.Action.Type.TargetTable(),
		Payload: model.ActionPayload{
			Parameters:           o.Action.Parameters,
			Reasoning:            o.Action.Reasoning,
			RequiresConfirmation: o.Action.RequiresConfirmation,
		},
		Status:    o.Status(),
		CreatedAt: now,
	}
	if rec.Status != model.ActionStatusPending {
		applyOutcome(rec, o, now)
	}

	if err := l.store.CreateAction(ctx, rec); err != nil {
		return nil, err
	}
	metrics.RecordAction(string(rec.ActionType), string(rec.Status))
	l.logger.Info("action recorded",
		zap.String("action_id", rec.ID),
		zap.String("user_id", userID),
		zap.String("type", string(rec.ActionType)),
		zap.String("status", string(rec.Status)),
	)
	return rec, nil
}

// Resolve moves a pending row to completed or failed.
func (l *Ledger) Resolve(ctx context.Context, rec *model.ActionRecord, o *Outcome) error {
	applyOutcome(rec, o, l.now())
	if err := l.store.FinishAction(ctx, rec); err != nil {
		return err
	}
	metrics.RecordAction(string(rec.ActionType), string(rec.Status))
	l.logger.Info("pending action resolved",
		zap.String("action_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.String("type", string(rec.ActionType)),
		zap.String("status", string(rec.Status)),
	)
	return nil
}

// LatestPending returns the newest pending row for the user created within ttl, scoped to
// conversationID when it is set. It returns nil when nothing qualifies.
func (l *Ledger) LatestPending(ctx context.Context, userID, conversationID string, ttl time.Duration) (*model.ActionRecord, error) {
	var scope *string
	if conversationID != "" {
		scope = &conversationID
	}
	var after *time.Time
	if ttl > 0 {
		cutoff := l.now().Add(-ttl)
		after = &cutoff
	}

	rec, err := l.store.LatestPendingAction(ctx, userID, scope, after)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Claim takes the pending row for this turn. It reports false when the worker or a
// concurrent turn already holds it, in which case the row must not be executed here.
func (l *Ledger) Claim(ctx context.Context, rec *model.ActionRecord) (bool, error) {
	at := l.now()
	claimed, err := l.store.ClaimAction(ctx, rec.ID, at)
	if err != nil || !claimed {
		return false, err
	}
	rec.ClaimedAt = &at
	return true, nil
}

func applyOutcome(rec *model.ActionRecord, o *Outcome, at time.Time) {
	rec.Status = o.Status()
	rec.Payload.Result = o.Result
	rec.Payload.Error = o.ErrorMessage()
	rec.ErrorMessage = o.ErrorMessage()
	rec.CompletedAt = &at
	if o.Result != nil {
		if id, ok := o.Result.Data["id"].(string); ok {
			rec.TargetID = id
		}
	}
}
