// Package worker executes confirmed coach actions taken from the work queue.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

// Disposition tells the consumer what to do with a queue message.
type Disposition int

const (
	// Ack removes the job from the queue.
	Ack Disposition = iota
	// Nak asks for redelivery.
	Nak
	// Term drops a job that can never succeed.
	Term
)

func (d Disposition) String() string {
	switch d {
	case Nak:
		return "nak"
	case Term:
		return "term"
	default:
		return "ack"
	}
}

// TokenIssuer signs a short-lived bearer token for calling the collaborator endpoints as userID.
type TokenIssuer func(userID, email string) (string, error)

// Processor claims a pending ledger row and executes it exactly once.
type Processor struct {
	store       *store.Store
	executor    *coach.Executor
	ledger      *coach.Ledger
	snapshotter *coach.Snapshotter
	issue       TokenIssuer
	logger      *logger.Logger
	now         func() time.Time
}

// NewProcessor creates a processor.
func NewProcessor(st *store.Store, executor *coach.Executor, ledger *coach.Ledger, snapshotter *coach.Snapshotter, issue TokenIssuer, log *logger.Logger) *Processor {
	return &Processor{
		store:       st,
		executor:    executor,
		ledger:      ledger,
		snapshotter: snapshotter,
		issue:       issue,
		logger:      log.Named("processor"),
		now:         time.Now,
	}
}

// Process handles one job. Failures before the claim ask for redelivery; once the row
// is claimed it is always finished and the job acked, so an action never runs twice.
func (p *Processor) Process(ctx context.Context, job *model.ActionJob) Disposition {
	d, outcome := p.process(ctx, job)
	metrics.WorkerJobsTotal.WithLabelValues(outcome).Inc()
	return d
}

func (p *Processor) process(ctx context.Context, job *model.ActionJob) (Disposition, string) {
	log := p.logger.With(zap.String("action_id", job.ActionID), zap.String("user_id", job.UserID))

	rec, err := p.store.GetAction(ctx, job.ActionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Warn("dropping job for unknown action")
		return Term, "unknown"
	case err != nil:
		log.Error("failed to load action", zap.Error(err))
		return Nak, "retry"
	}

	if rec.UserID != job.UserID {
		log.Warn("dropping job for action owned by another user", zap.String("owner", rec.UserID))
		return Term, "rejected"
	}
	if rec.Status != model.ActionStatusPending {
		log.Info("action already resolved", zap.String("status", string(rec.Status)))
		return Ack, "skipped"
	}

	claimed, err := p.store.ClaimAction(ctx, rec.ID, p.now())
	if err != nil {
		log.Error("failed to claim action", zap.Error(err))
		return Nak, "retry"
	}
	if !claimed {
		log.Info("action claimed elsewhere")
		return Ack, "skipped"
	}

	rc := coach.RequestContext{UserID: rec.UserID}
	if profile, err := p.store.GetProfile(ctx, rec.UserID); err == nil {
		rc.Email = profile.Email
	}

	var o *coach.Outcome
	token, err := p.issue(rc.UserID, rc.Email)
	if err != nil {
		o = &coach.Outcome{Action: rec.Action(), Route: coach.RouteExecute, Err: err}
	} else {
		rc.AuthToken = token
		o = p.executor.Run(ctx, rc, rec.Action())
	}

	if err := p.ledger.Resolve(ctx, rec, o); err != nil {
		log.Error("failed to finish action", zap.Error(err))
	}
	if o.Err != nil {
		log.Warn("action failed", zap.String("type", string(rec.ActionType)), zap.Error(o.Err))
		return Ack, "failed"
	}

	if _, err := p.snapshotter.Refresh(ctx, rc); err != nil {
		log.Warn("failed to refresh context snapshot", zap.Error(err))
	}
	log.Info("action executed", zap.String("type", string(rec.ActionType)))
	return Ack, "completed"
}
