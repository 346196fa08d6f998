package state

import (
	"sync"
	"sync/atomic"
)

// Store is the process-wide holder of both view states. Handlers run
// concurrently; every transition goes through the reducers under mu.
type Store struct {
	seq atomic.Uint64

	mu        sync.RWMutex
	ads       AdsState
	dashboard DashboardState
}

func NewStore() *Store {
	return &Store{
		ads:       InitialAds(),
		dashboard: InitialDashboard(),
	}
}

// Begin issues the next request sequence number. Numbers are shared by both
// views and strictly increasing.
func (s *Store) Begin() uint64 {
	return s.seq.Add(1)
}

// DispatchAds applies a and returns the resulting state.
func (s *Store) DispatchAds(a AdsAction) AdsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ads = ReduceAds(s.ads, a)
	return s.ads
}

// DispatchDashboard applies a and returns the resulting state.
func (s *Store) DispatchDashboard(a DashboardAction) DashboardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = ReduceDashboard(s.dashboard, a)
	return s.dashboard
}

func (s *Store) Ads() AdsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ads
}

func (s *Store) Dashboard() DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}
