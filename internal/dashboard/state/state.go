// Package state holds the view state of the ads and dashboard pages.
//
// State values are never mutated in place: reducers take a state and an
// action and return the next state. Every fetch is tagged with a sequence
// number taken before it starts, and a completion is only applied when its
// sequence number is still the latest one issued, so a slow response can
// never overwrite a newer one.
package state

import (
	"time"

	"github.com/maltedev/classifieds-dashboard/internal/analytics"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

// AdsState backs the ads page.
type AdsState struct {
	Ads      []models.Ad     `json:"ads"`
	Category models.Category `json:"category"`
	Loading  bool            `json:"loading"`
	Scraping bool            `json:"scraping"`
	Error    string          `json:"error,omitempty"`
	Notice   string          `json:"notice,omitempty"`
	Seq      uint64          `json:"seq"`
	LoadedAt time.Time       `json:"loaded_at"`
}

func InitialAds() AdsState {
	return AdsState{Category: models.CategoryRealEstate}
}

// AdsAction is an event applied by ReduceAds.
type AdsAction interface {
	adsAction()
}

type (
	FetchStarted struct {
		Seq uint64
	}
	FetchSucceeded struct {
		Seq uint64
		Ads []models.Ad
		At  time.Time
	}
	FetchFailed struct {
		Seq   uint64
		Error string
	}
	CategorySelected struct {
		Category models.Category
	}
	ScrapeStarted   struct{}
	ScrapeSucceeded struct {
		Message string
	}
	ScrapeFailed struct {
		Error string
	}
	ExportFailed struct {
		Error string
	}
)

func (FetchStarted) adsAction()     {}
func (FetchSucceeded) adsAction()   {}
func (FetchFailed) adsAction()      {}
func (CategorySelected) adsAction() {}
func (ScrapeStarted) adsAction()    {}
func (ScrapeSucceeded) adsAction()  {}
func (ScrapeFailed) adsAction()     {}
func (ExportFailed) adsAction()     {}

// ReduceAds returns the state after applying a. On failure the last loaded
// ads are kept and only the error message changes.
func ReduceAds(s AdsState, a AdsAction) AdsState {
	switch a := a.(type) {
	case FetchStarted:
		if a.Seq <= s.Seq {
			return s
		}
		s.Seq = a.Seq
		s.Loading = true
	case FetchSucceeded:
		if a.Seq != s.Seq {
			return s
		}
		s.Ads = a.Ads
		s.LoadedAt = a.At
		s.Loading = false
		s.Error = ""
	case FetchFailed:
		if a.Seq != s.Seq {
			return s
		}
		s.Loading = false
		s.Error = a.Error
	case CategorySelected:
		s.Category = a.Category
	case ScrapeStarted:
		s.Scraping = true
		s.Error = ""
		s.Notice = ""
	case ScrapeSucceeded:
		s.Scraping = false
		s.Notice = a.Message
	case ScrapeFailed:
		s.Scraping = false
		s.Error = a.Error
	case ExportFailed:
		s.Error = a.Error
	}
	return s
}

// DashboardState backs the dashboard page.
type DashboardState struct {
	Filters  Filters           `json:"filters"`
	Report   analytics.Report  `json:"report"`
	Options  analytics.Options `json:"options"`
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
	Seq      uint64            `json:"seq"`
	LoadedAt time.Time         `json:"loaded_at"`
}

func InitialDashboard() DashboardState {
	return DashboardState{
		Filters: DefaultFilters(),
		Report:  analytics.Compute(nil),
		Options: analytics.FilterOptions(nil),
	}
}

// DashboardAction is an event applied by ReduceDashboard.
type DashboardAction interface {
	dashboardAction()
}

type (
	DashboardFetchStarted struct {
		Seq     uint64
		Filters Filters
	}
	DashboardFetchSucceeded struct {
		Seq     uint64
		Report  analytics.Report
		Options analytics.Options
		At      time.Time
	}
	DashboardFetchFailed struct {
		Seq   uint64
		Error string
	}
)

func (DashboardFetchStarted) dashboardAction()   {}
func (DashboardFetchSucceeded) dashboardAction() {}
func (DashboardFetchFailed) dashboardAction()    {}

// ReduceDashboard returns the state after applying a. The filters change as
// soon as a fetch starts; the report only when that same fetch completes.
func ReduceDashboard(s DashboardState, a DashboardAction) DashboardState {
	switch a := a.(type) {
	case DashboardFetchStarted:
		if a.Seq <= s.Seq {
			return s
		}
		s.Seq = a.Seq
		s.Filters = a.Filters
		s.Loading = true
	case DashboardFetchSucceeded:
		if a.Seq != s.Seq {
			return s
		}
		s.Report = a.Report
		s.Options = a.Options
		s.LoadedAt = a.At
		s.Loading = false
		s.Error = ""
	case DashboardFetchFailed:
		if a.Seq != s.Seq {
			return s
		}
		s.Loading = false
		s.Error = a.Error
	}
	return s
}
