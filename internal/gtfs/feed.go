package gtfs

import (
	"sync/atomic"

	"transitfeed/internal/geo"
)

// Feed is the resolved entity graph of one GTFS dataset. The stores own
// their entities; every cross-entity pointer refers into one of them.
type Feed struct {
	Info      *FeedInfo
	Agencies  Store[Agency]
	Stops     Store[Stop]
	Routes    Store[Route]
	Services  Store[Service]
	Shapes    Store[Shape]
	Trips     Store[Trip]
	Fares     Store[Fare]
	Transfers []Transfer

	// Bounds covers every stop and shape point.
	Bounds geo.BoundingBox
}

// NewFeed returns an empty feed whose stores use strategy.
func NewFeed(strategy StoreStrategy) *Feed {
	return &Feed{
		Agencies: NewStore[Agency](strategy),
		Stops:    NewStore[Stop](strategy),
		Routes:   NewStore[Route](strategy),
		Services: NewStore[Service](strategy),
		Shapes:   NewStore[Shape](strategy),
		Trips:    NewStore[Trip](strategy),
		Fares:    NewStore[Fare](strategy),
	}
}

// HasFrequencies reports whether any trip carries frequency rows.
func (f *Feed) HasFrequencies() bool {
	for t := range f.Trips.All() {
		if len(t.Frequencies()) > 0 {
			return true
		}
	}
	return false
}

// Finalize compacts every store once ingestion is complete.
func (f *Feed) Finalize() {
	f.Agencies.Finalize()
	f.Stops.Finalize()
	f.Routes.Finalize()
	f.Services.Finalize()
	f.Shapes.Finalize()
	f.Trips.Finalize()
	f.Fares.Finalize()
}

// Summary holds per-table entity counts.
type Summary struct {
	Agencies    int `json:"agencies"`
	Stops       int `json:"stops"`
	Routes      int `json:"routes"`
	Services    int `json:"services"`
	Shapes      int `json:"shapes"`
	ShapePoints int `json:"shape_points"`
	Trips       int `json:"trips"`
	StopTimes   int `json:"stop_times"`
	Frequencies int `json:"frequencies"`
	Transfers   int `json:"transfers"`
	Fares       int `json:"fares"`
	FareRules   int `json:"fare_rules"`
}

func (f *Feed) Summary() Summary {
	s := Summary{
		Agencies:  f.Agencies.Len(),
		Stops:     f.Stops.Len(),
		Routes:    f.Routes.Len(),
		Services:  f.Services.Len(),
		Shapes:    f.Shapes.Len(),
		Trips:     f.Trips.Len(),
		Transfers: len(f.Transfers),
		Fares:     f.Fares.Len(),
	}
	for sh := range f.Shapes.All() {
		s.ShapePoints += len(sh.Points())
	}
	for t := range f.Trips.All() {
		s.StopTimes += len(t.StopTimes())
		s.Frequencies += len(t.Frequencies())
	}
	for fa := range f.Fares.All() {
		s.FareRules += len(fa.Rules())
	}
	return s
}

// FirstAgency returns the first agency in store order, or nil.
func (f *Feed) FirstAgency() *Agency {
	for a := range f.Agencies.All() {
		return a
	}
	return nil
}

// Holder publishes the current feed to concurrent readers. A feed is never
// modified after it has been stored.
type Holder struct {
	p atomic.Pointer[Feed]
}

// Load returns the current feed, or nil before the first Store.
func (h *Holder) Load() *Feed { return h.p.Load() }

func (h *Holder) Store(f *Feed) { h.p.Store(f) }
