package handler

import (
	"fmt"
	"net/http"

	"transitfeed/internal/templates"
)

// TripDetail serves one trip with its stop times and frequencies.
func (h *Handler) TripDetail(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	trip := feed.Trips.Get(r.PathValue("id"))
	if trip == nil {
		http.NotFound(w, r)
		return
	}

	data := templates.TripDetailData{
		Page:      h.page(fmt.Sprintf("Trip %s", trip.ID), "/routes"),
		TripID:    trip.ID,
		Route:     routeInfo(trip.Route),
		Headsign:  trip.Headsign,
		ServiceID: trip.Service.ID,
	}
	if trip.Shape != nil {
		data.ShapeID = trip.Shape.ID
	}
	for _, st := range trip.StopTimes() {
		data.StopTimes = append(data.StopTimes, templates.StopTimeRow{
			Sequence:  st.Sequence,
			StopID:    st.Stop.ID,
			StopName:  st.Stop.Name,
			Arrival:   st.Arrival.String(),
			Departure: st.Departure.String(),
		})
	}
	for _, f := range trip.Frequencies() {
		data.Frequencies = append(data.Frequencies, templates.FrequencyRow{
			Start:   f.Start.String(),
			End:     f.End.String(),
			Headway: int(f.HeadwaySecs),
			Exact:   f.ExactTimes,
		})
	}
	h.render(r.Context(), w, "trip detail", templates.TripDetailPage(data))
}
