package coach

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/logger"
)

const (
	logWindowDays      = 30
	sessionLimit       = 20
	recentMessageLimit = 10
)

// Assembler gathers a user's fitness state into a ContextBundle. Optional sub-fetches
// degrade to empty values; only a missing identity fails the assembly.
type Assembler struct {
	store  *store.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewAssembler creates an assembler.
func NewAssembler(st *store.Store, log *logger.Logger) *Assembler {
	return &Assembler{
		store:  st,
		logger: log.Named("assembler"),
		now:    time.Now,
	}
}

// Assemble builds the bundle. When conversationID is set, recent messages come from that
// conversation; otherwise from all of the user's conversations.
func (a *Assembler) Assemble(ctx context.Context, rc RequestContext, conversationID string) (*model.ContextBundle, error) {
	if rc.UserID == "" {
		return nil, ErrUnauthorized
	}

	now := a.now().UTC()
	since := now.AddDate(0, 0, -logWindowDays).Format(model.DateLayout)
	userID := rc.UserID
	b := &model.ContextBundle{AssembledAt: now}

	var profile *model.Profile
	var g errgroup.Group

	g.Go(func() error {
		p, err := a.store.GetProfile(ctx, userID)
		a.degrade("profile", err)
		profile = p
		return nil
	})
	g.Go(func() error {
		fp, err := a.store.GetFitnessProfile(ctx, userID)
		a.degrade("fitness_profile", err)
		b.FitnessProfile = fp
		return nil
	})
	g.Go(func() error {
		goals, err := a.store.GetGoals(ctx, userID)
		a.degrade("goals", err)
		b.Goals = goals
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListWeightLogs(ctx, userID, since)
		a.degrade("weight_logs", err)
		b.Logs.Weights = list
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListMealLogs(ctx, userID, since)
		a.degrade("meal_logs", err)
		b.Logs.Meals = list
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListActivityLogs(ctx, userID, since)
		a.degrade("activity_logs", err)
		b.Logs.Activities = list
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListMoodLogs(ctx, userID, since)
		a.degrade("mood_logs", err)
		b.Logs.Moods = list
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListActivePlans(ctx, userID)
		a.degrade("plans", err)
		b.ActivePlans = list
		return nil
	})
	g.Go(func() error {
		list, err := a.store.ListWorkoutSessions(ctx, userID, sessionLimit)
		a.degrade("workout_sessions", err)
		b.WorkoutSessions = list
		return nil
	})
	g.Go(func() error {
		find := &store.FindMessage{Newest: true, Limit: recentMessageLimit}
		if conversationID != "" {
			find.ConversationID = &conversationID
		} else {
			find.UserID = &userID
		}
		list, err := a.store.ListMessages(ctx, find)
		a.degrade("messages", err)
		b.RecentMessages = chronological(list)
		return nil
	})
	_ = g.Wait()

	if profile == nil {
		profile = synthesizeProfile(rc, now)
	}
	b.Profile = *profile
	b.Metrics = deriveMetrics(b, now)
	return b, nil
}

func (a *Assembler) degrade(source string, err error) {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return
	}
	a.logger.Warn("context source unavailable, continuing without it",
		zap.String("source", source),
		zap.Error(err),
	)
}

// synthesizeProfile stands in for a missing profile row using the authenticated identity.
func synthesizeProfile(rc RequestContext, now time.Time) *model.Profile {
	name := "there"
	if local, _, ok := strings.Cut(rc.Email, "@"); ok && local != "" {
		name = local
	}
	return &model.Profile{
		UserID:    rc.UserID,
		Name:      name,
		Email:     rc.Email,
		CreatedAt: now,
	}
}

func chronological(newestFirst []model.Message) []model.Message {
	out := make([]model.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out
}
