package realtime

import (
	"slices"
	"sync"
)

// Alert is a service alert reduced to what the inspector shows.
type Alert struct {
	ID         string
	HeaderText string
	DescText   string
	RouteIDs   []string
	StopIDs    []string
	Effect     string // "NO_SERVICE", "REDUCED_SERVICE", "DETOUR", etc.
	Cause      string
}

// Store holds the latest realtime snapshot for concurrent readers.
type Store struct {
	mu     sync.RWMutex
	alerts []Alert
	report *Report
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the snapshot with the alerts and reference report of one
// feed message.
func (s *Store) Set(alerts []Alert, report Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
	s.report = &report
}

// Report returns the latest reference report, if any message was checked.
func (s *Store) Report() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return Report{}, false
	}
	return *s.report, true
}

func (s *Store) AlertsForRoute(routeID string) []Alert {
	return s.filter(func(a Alert) bool { return slices.Contains(a.RouteIDs, routeID) })
}

func (s *Store) AlertsForStop(stopID string) []Alert {
	return s.filter(func(a Alert) bool { return slices.Contains(a.StopIDs, stopID) })
}

// AllAlerts returns a copy of every alert.
func (s *Store) AllAlerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

func (s *Store) filter(keep func(Alert) bool) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Alert
	for _, a := range s.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
