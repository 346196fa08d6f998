package views

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
	"github.com/maltedev/classifieds-dashboard/internal/analytics"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
)

const MsgDashboardFailed = "Failed to load dashboard data"

type DashboardView struct {
	state  *state.Store
	store  adstore.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewDashboardView(st *state.Store, store adstore.Store, logger *slog.Logger) *DashboardView {
	return &DashboardView{
		state:  st,
		store:  store,
		now:    time.Now,
		logger: logger.With("component", "dashboard_view"),
	}
}

func (v *DashboardView) Snapshot() state.DashboardState {
	return v.state.Dashboard()
}

// Apply queries the ads matching filters and recomputes every aggregate and
// the filter options from that result set.
func (v *DashboardView) Apply(ctx context.Context, filters state.Filters) (state.DashboardState, error) {
	seq := v.state.Begin()
	v.state.DispatchDashboard(state.DashboardFetchStarted{Seq: seq, Filters: filters})

	now := v.now()
	ads, err := v.store.List(ctx, filters.Query(now))
	if err != nil {
		v.logger.Error("failed to load dashboard data", "error", err, "seq", seq)
		s := v.state.DispatchDashboard(state.DashboardFetchFailed{Seq: seq, Error: MsgDashboardFailed})
		return s, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	s := v.state.DispatchDashboard(state.DashboardFetchSucceeded{
		Seq:     seq,
		Report:  analytics.Compute(ads),
		Options: analytics.FilterOptions(ads),
		At:      now,
	})
	v.logger.Debug("dashboard computed", "ads", len(ads), "seq", seq, "applied", s.Seq == seq)
	return s, nil
}
