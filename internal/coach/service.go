// Package coach runs the agentic coach turn: it assembles the user's context, asks the
// completion service for a reply, parses the action embedded in it, routes that action
// through the confirmation gate, executes it and records the outcome.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/fitness-coach/internal/llm"
	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/service"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
	"github.com/capitalize-ai/fitness-coach/pkg/tracing"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("invalid request")
	ErrUpstream             = errors.New("completion service unavailable")
	ErrConversationNotFound = service.ErrConversationNotFound
)

// FallbackApology is returned to the caller when a turn fails on the server side.
const FallbackApology = "Sorry, I'm having some technical difficulties right now. Please try again in a moment."

// Options configures the coach turn.
type Options struct {
	Model             string
	MaxTokens         int
	Temperature       float64
	CompletionTimeout time.Duration
	PendingTTL        time.Duration
}

// Service orchestrates coach turns.
type Service struct {
	llm           llm.Client
	assembler     *Assembler
	parser        *Parser
	executor      *Executor
	ledger        *Ledger
	conversations *service.ConversationService
	messages      *service.MessageService
	opts          Options
	logger        *logger.Logger
	tracer        trace.Tracer
}

// Deps are the collaborators of a Service.
type Deps struct {
	LLM           llm.Client
	Assembler     *Assembler
	Executor      *Executor
	Ledger        *Ledger
	Conversations *service.ConversationService
	Messages      *service.MessageService
}

// NewService creates a coach service.
func NewService(deps Deps, opts Options, log *logger.Logger) *Service {
	return &Service{
		llm:           deps.LLM,
		assembler:     deps.Assembler,
		parser:        NewParser(log),
		executor:      deps.Executor,
		ledger:        deps.Ledger,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		opts:          opts,
		logger:        log.Named("coach"),
		tracer:        tracing.Tracer("coach"),
	}
}

// Chat runs one coach turn for the authenticated caller rc.
//
// Authorization, validation and completion failures abort the turn before anything is
// written. Once a reply exists, action failures are embedded in the response and
// persistence failures are logged only.
func (s *Service) Chat(ctx context.Context, rc RequestContext, req *model.ChatRequest) (*model.ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "coach.turn")
	defer span.End()

	resp, err := s.chat(ctx, rc, req)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case errors.Is(err, ErrConversationNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrUpstream):
		outcome = "upstream_error"
	case err != nil:
		outcome = "error"
	}
	metrics.CoachTurnsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return resp, err
}

func (s *Service) chat(ctx context.Context, rc RequestContext, req *model.ChatRequest) (*model.ChatResponse, error) {
	if rc.UserID == "" {
		return nil, ErrUnauthorized
	}
	message := strings.TrimSpace(req.Message)
	if message == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: message and userId are required", ErrValidation)
	}
	if req.UserID != rc.UserID {
		return nil, ErrUnauthorized
	}

	conv, isNew, err := s.conversations.Resolve(ctx, rc.UserID, req.ConversationID)
	switch {
	case errors.Is(err, service.ErrNotOwner):
		return nil, ErrUnauthorized
	case err != nil:
		return nil, err
	}

	log := s.logger.WithTurn(logger.CorrelationID(ctx), rc.UserID, conv.ID)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("user.id", rc.UserID),
		attribute.String("conversation.id", conv.ID),
	)

	bundle, err := s.assemble(ctx, rc, req.ConversationID)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, bundle, message)
	if err != nil {
		log.Error("completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	parsed := s.parser.Parse(reply)
	confirming := IsConfirmationTurn(message, req.ConfirmAction)

	var pending *model.ActionRecord
	if confirming {
		pending, err = s.ledger.LatestPending(ctx, rc.UserID, req.ConversationID, s.opts.PendingTTL)
		if err != nil {
			log.Warn("pending action lookup failed", zap.Error(err))
		}
	}

	var (
		outcome *Outcome
		handled bool
	)
	if pending != nil {
		claimed, err := s.ledger.Claim(ctx, pending)
		if err != nil {
			log.Warn("failed to claim pending action", zap.String("action_id", pending.ID), zap.Error(err))
		}
		if !claimed {
			log.Info("pending action already in progress", zap.String("action_id", pending.ID))
			pending, handled = nil, true
		}
	}

	switch {
	case handled:
		// Nothing runs this turn; the row belongs to whoever claimed it.
		outcome = &Outcome{Action: parsed.Action, Route: RouteNone}
	case pending != nil:
		log.Info("confirming pending action",
			zap.String("action_id", pending.ID),
			zap.String("type", string(pending.ActionType)),
		)
		outcome = s.execute(ctx, rc, pending.Action())
	default:
		route := Decide(parsed.Action, confirming)
		outcome = &Outcome{Action: parsed.Action, Route: route}
		if route == RouteExecute {
			outcome = s.execute(ctx, rc, parsed.Action)
		}
	}
	if outcome.Err != nil {
		log.Warn("action failed",
			zap.String("type", string(outcome.Action.Type)),
			zap.Error(outcome.Err),
		)
	}

	text := Compose(parsed.Text, outcome)
	if handled {
		text = appendNote(text, AlreadyInProgress)
	}
	s.persist(ctx, log, conv, isNew, pending, outcome, req.Message, text)

	resp := &model.ChatResponse{
		Message:              text,
		ConversationID:       conv.ID,
		RequiresConfirmation: outcome.Route == RouteDefer,
	}
	if outcome.Route != RouteNone {
		resp.Action = outcome.Action
		resp.ActionResult = outcome.Result
		resp.ActionError = outcome.UserMessage()
	}
	return resp, nil
}

func (s *Service) assemble(ctx context.Context, rc RequestContext, conversationID string) (*model.ContextBundle, error) {
	ctx, span := s.tracer.Start(ctx, "coach.assemble")
	defer span.End()
	return s.assembler.Assemble(ctx, rc, conversationID)
}

func (s *Service) complete(ctx context.Context, bundle *model.ContextBundle, message string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "coach.complete")
	defer span.End()

	if s.opts.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CompletionTimeout)
		defer cancel()
	}

	system, messages := BuildPrompt(bundle, bundle.RecentMessages, message)
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       s.opts.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	return resp.Content, nil
}

func (s *Service) execute(ctx context.Context, rc RequestContext, action *model.Action) *Outcome {
	ctx, span := s.tracer.Start(ctx, "coach.execute",
		trace.WithAttributes(attribute.String("action.type", string(action.Type))))
	defer span.End()

	o := s.executor.Run(ctx, rc, action)
	if o.Err != nil {
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, "action failed")
	}
	return o
}

// persist writes the conversation, the ledger row and the message pair. Failures are
// logged and never change the reply.
func (s *Service) persist(ctx context.Context, log *logger.Logger, conv *model.Conversation, isNew bool,
	pending *model.ActionRecord, o *Outcome, userContent, assistantContent string) {
	if isNew {
		if err := s.conversations.Create(ctx, conv); err != nil {
			log.Error("failed to create conversation", zap.Error(err))
		}
	}

	switch {
	case pending != nil:
		if err := s.ledger.Resolve(ctx, pending, o); err != nil {
			log.Error("failed to resolve pending action", zap.String("action_id", pending.ID), zap.Error(err))
		}
	case o.Route != RouteNone:
		if _, err := s.ledger.Record(ctx, conv.UserID, conv.ID, o); err != nil {
			log.Error("failed to record action", zap.Error(err))
		}
	}

	var meta *model.MessageMetadata
	if o.Route != RouteNone {
		meta = &model.MessageMetadata{
			Action:       o.Action,
			ActionResult: o.Result,
			ActionError:  o.UserMessage(),
		}
	}
	if err := s.messages.SaveTurn(ctx, conv, userContent, assistantContent, meta); err != nil {
		log.Error("failed to save conversation turn", zap.Error(err))
	}
}
