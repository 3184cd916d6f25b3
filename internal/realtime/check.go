package realtime

import (
	"fmt"
	"slices"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"transitfeed/internal/gtfs"
)

// Report summarizes one GTFS-Realtime message and lists the ids it uses
// that the static feed does not define.
type Report struct {
	FeedTimestamp time.Time
	CheckedAt     time.Time
	Entities      int
	TripUpdates   int
	Vehicles      int
	Alerts        int

	UnknownTrips  []string
	UnknownRoutes []string
	UnknownStops  []string
}

// Clean reports whether every referenced id resolved.
func (r Report) Clean() bool {
	return len(r.UnknownTrips) == 0 && len(r.UnknownRoutes) == 0 && len(r.UnknownStops) == 0
}

// Decode parses a protobuf-encoded FeedMessage.
func Decode(b []byte) (*gtfsrt.FeedMessage, error) {
	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("parse realtime protobuf: %w", err)
	}
	return msg, nil
}

type idSet map[string]struct{}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

type checker struct {
	feed                 *gtfs.Feed
	trips, routes, stops idSet
}

func (c *checker) trip(id string) {
	if id != "" && c.feed.Trips.Get(id) == nil {
		c.trips[id] = struct{}{}
	}
}

func (c *checker) route(id string) {
	if id != "" && c.feed.Routes.Get(id) == nil {
		c.routes[id] = struct{}{}
	}
}

func (c *checker) stop(id string) {
	if id != "" && c.feed.Stops.Get(id) == nil {
		c.stops[id] = struct{}{}
	}
}

func (c *checker) descriptor(td *gtfsrt.TripDescriptor) {
	c.trip(td.GetTripId())
	c.route(td.GetRouteId())
}

// Check resolves every trip, route and stop id of msg against feed.
func Check(msg *gtfsrt.FeedMessage, feed *gtfs.Feed) Report {
	c := &checker{feed: feed, trips: idSet{}, routes: idSet{}, stops: idSet{}}
	r := Report{CheckedAt: time.Now(), Entities: len(msg.GetEntity())}
	if ts := msg.GetHeader().GetTimestamp(); ts > 0 {
		r.FeedTimestamp = time.Unix(int64(ts), 0)
	}

	for _, e := range msg.GetEntity() {
		if tu := e.GetTripUpdate(); tu != nil {
			r.TripUpdates++
			c.descriptor(tu.GetTrip())
			for _, stu := range tu.GetStopTimeUpdate() {
				c.stop(stu.GetStopId())
			}
		}
		if vp := e.GetVehicle(); vp != nil {
			r.Vehicles++
			c.descriptor(vp.GetTrip())
			c.stop(vp.GetStopId())
		}
		if a := e.GetAlert(); a != nil {
			r.Alerts++
			for _, ie := range a.GetInformedEntity() {
				c.route(ie.GetRouteId())
				c.stop(ie.GetStopId())
				c.descriptor(ie.GetTrip())
			}
		}
	}

	r.UnknownTrips = c.trips.sorted()
	r.UnknownRoutes = c.routes.sorted()
	r.UnknownStops = c.stops.sorted()
	return r
}

// AlertsOf extracts the alerts of msg.
func AlertsOf(msg *gtfsrt.FeedMessage) []Alert {
	var alerts []Alert
	for _, e := range msg.GetEntity() {
		a := e.GetAlert()
		if a == nil {
			continue
		}
		alert := Alert{
			ID:         e.GetId(),
			HeaderText: translation(a.GetHeaderText()),
			DescText:   translation(a.GetDescriptionText()),
			Effect:     a.GetEffect().String(),
			Cause:      a.GetCause().String(),
		}
		for _, ie := range a.GetInformedEntity() {
			if rid := ie.GetRouteId(); rid != "" && !slices.Contains(alert.RouteIDs, rid) {
				alert.RouteIDs = append(alert.RouteIDs, rid)
			}
			if sid := ie.GetStopId(); sid != "" && !slices.Contains(alert.StopIDs, sid) {
				alert.StopIDs = append(alert.StopIDs, sid)
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

// translation returns the first non-empty translation.
func translation(ts *gtfsrt.TranslatedString) string {
	for _, t := range ts.GetTranslation() {
		if text := t.GetText(); text != "" {
			return text
		}
	}
	return ""
}

// EffectLabel returns a human-readable alert effect.
func EffectLabel(effect string) string {
	switch effect {
	case "NO_SERVICE":
		return "No Service"
	case "REDUCED_SERVICE":
		return "Reduced Service"
	case "SIGNIFICANT_DELAYS":
		return "Significant Delays"
	case "DETOUR":
		return "Detour"
	case "ADDITIONAL_SERVICE":
		return "Additional Service"
	case "MODIFIED_SERVICE":
		return "Modified Service"
	case "STOP_MOVED":
		return "Stop Moved"
	}
	return "Alert"
}
