package handler

import (
	"fmt"
	"net/http"
	"slices"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/templates"
)

// RouteList serves the route explorer page.
func (h *Handler) RouteList(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	var routes []templates.RouteInfo
	for rt := range feed.Routes.All() {
		routes = append(routes, routeInfo(rt))
	}
	h.render(r.Context(), w, "route list", templates.RouteListPage(templates.RouteListData{
		Page:   h.page("Routes", "/routes"),
		Routes: routes,
	}))
}

// RouteDetail serves the detail page for a single route: its trips ordered
// by direction and first departure.
func (h *Handler) RouteDetail(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	route := feed.Routes.Get(r.PathValue("id"))
	if route == nil {
		http.NotFound(w, r)
		return
	}

	var trips []*gtfs.Trip
	for t := range feed.Trips.All() {
		if t.Route == route {
			trips = append(trips, t)
		}
	}
	slices.SortFunc(trips, func(a, b *gtfs.Trip) int {
		if a.Direction != b.Direction {
			return int(a.Direction) - int(b.Direction)
		}
		return firstDeparture(a).Seconds() - firstDeparture(b).Seconds()
	})

	rows := make([]templates.TripRow, 0, len(trips))
	for _, t := range trips {
		row := templates.TripRow{
			TripID:    t.ID,
			Headsign:  t.Headsign,
			Direction: directionName(t.Direction),
			ServiceID: t.Service.ID,
			Stops:     len(t.StopTimes()),
		}
		if sts := t.StopTimes(); len(sts) > 0 {
			row.First = formatGTFSTime(sts[0].Departure)
			row.Last = formatGTFSTime(sts[len(sts)-1].Arrival)
		}
		rows = append(rows, row)
	}

	info := routeInfo(route)
	h.render(r.Context(), w, "route detail", templates.RouteDetailPage(templates.RouteDetailData{
		Page:   h.page(fmt.Sprintf("Route %s", info.RouteShort), "/routes"),
		Route:  info,
		Trips:  rows,
		Alerts: h.alertsForRoute(route.ID),
	}))
}

func firstDeparture(t *gtfs.Trip) gtfs.Time {
	if sts := t.StopTimes(); len(sts) > 0 {
		return sts[0].Departure
	}
	return 0
}

// formatGTFSTime renders t on a 12-hour clock. Times past midnight of the
// service day wrap and are marked with "+1".
func formatGTFSTime(t gtfs.Time) string {
	if t.Empty() {
		return ""
	}
	h := t.Hour()
	period := "AM"
	if h%24 >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	s := fmt.Sprintf("%d:%02d %s", display, t.Minute(), period)
	if days := h / 24; days > 0 {
		s += fmt.Sprintf(" +%d", days)
	}
	return s
}
