package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/fitness-coach/internal/model"
	"github.com/capitalize-ai/fitness-coach/internal/store"
	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

// Snapshotter refreshes the cached per-user context snapshot.
type Snapshotter struct {
	assembler *Assembler
	store     *store.Store
	now       func() time.Time
}

// NewSnapshotter creates a snapshotter.
func NewSnapshotter(assembler *Assembler, st *store.Store) *Snapshotter {
	return &Snapshotter{assembler: assembler, store: st, now: time.Now}
}

// Refresh reassembles the user's context and upserts it as the snapshot.
func (s *Snapshotter) Refresh(ctx context.Context, rc RequestContext) (*model.ContextSnapshot, error) {
	bundle, err := s.assembler.Assemble(ctx, rc, "")
	if err != nil {
		metrics.SnapshotRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	snap := &model.ContextSnapshot{
		UserID:    rc.UserID,
		Summary:   Summarize(bundle),
		Data:      bundle,
		UpdatedAt: s.now(),
	}
	if err := s.store.UpsertContextSnapshot(ctx, snap); err != nil {
		metrics.SnapshotRefreshTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SnapshotRefreshTotal.WithLabelValues("ok").Inc()
	return snap, nil
}

// Summarize renders a short plain-text summary of the bundle.
func Summarize(b *model.ContextBundle) string {
	m := b.Metrics
	parts := []string{b.Profile.Name}

	if m.CurrentWeight > 0 {
		parts = append(parts, fmt.Sprintf("weighs %.1f", m.CurrentWeight))
	}
	if g := b.Goals; g != nil && g.GoalWeight > 0 {
		parts = append(parts, fmt.Sprintf("is %.1f%% of the way to %.1f", m.GoalProgressPercent, g.GoalWeight))
	}
	if m.WeightTrend7Days != 0 {
		parts = append(parts, fmt.Sprintf("moved %+.1f this week", m.WeightTrend7Days))
	}
	if m.AvgDailyCalories7Days > 0 {
		parts = append(parts, fmt.Sprintf("averages %.0f kcal a day", m.AvgDailyCalories7Days))
	}
	if len(b.ActivePlans) > 0 {
		parts = append(parts, fmt.Sprintf("has %d active plan(s) at %.0f%% completion", len(b.ActivePlans), m.WorkoutCompletionRate))
	}
	parts = append(parts, fmt.Sprintf("logged %d workouts, %d meals and %d weigh-ins in 30 days",
		len(b.Logs.Activities), len(b.Logs.Meals), len(b.Logs.Weights)))

	return strings.Join(parts, ", ") + "."
}
