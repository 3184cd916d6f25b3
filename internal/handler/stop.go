package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/templates"
)

// StopDetail serves the detail page for a single stop.
func (h *Handler) StopDetail(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	stop := feed.Stops.Get(r.PathValue("id"))
	if stop == nil {
		http.NotFound(w, r)
		return
	}

	data := templates.StopDetailData{
		Page:         h.page(fmt.Sprintf("Stop %s", stop.Name), ""),
		StopID:       stop.ID,
		Code:         stop.Code,
		Name:         stop.Name,
		Lat:          strconv.FormatFloat(stop.Lat, 'f', -1, 64),
		Lon:          strconv.FormatFloat(stop.Lon, 'f', -1, 64),
		LocationType: locationName(stop.LocationType),
		Alerts:       h.alertsForStop(stop.ID),
	}
	if stop.Parent != nil {
		data.Parent = &templates.StopRef{StopID: stop.Parent.ID, StopName: stop.Parent.Name}
	}
	for s := range feed.Stops.All() {
		if s.Parent == stop {
			data.Children = append(data.Children, templates.StopRef{StopID: s.ID, StopName: s.Name})
		}
	}

	seen := map[*gtfs.Route]bool{}
	for t := range feed.Trips.All() {
		if seen[t.Route] {
			continue
		}
		for _, st := range t.StopTimes() {
			if st.Stop == stop {
				seen[t.Route] = true
				data.Routes = append(data.Routes, routeInfo(t.Route))
				break
			}
		}
	}

	h.render(r.Context(), w, "stop detail", templates.StopDetailPage(data))
}

func locationName(t gtfs.LocationType) string {
	switch t {
	case gtfs.LocationStation:
		return "Station"
	case gtfs.LocationEntrance:
		return "Entrance"
	}
	return "Stop"
}
