package handler

import (
	"net/http"
	"time"

	"transitfeed/internal/templates"
)

// Realtime serves the latest GTFS-Realtime reference check.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	data := templates.RealtimeData{
		Page:       h.page("Realtime check", "/realtime"),
		Configured: h.cfg.RealtimeURL != "",
	}
	if report, ok := h.rt.Report(); ok {
		data.Loaded = true
		data.Entities = report.Entities
		data.TripUpdates = report.TripUpdates
		data.Vehicles = report.Vehicles
		data.AlertCount = report.Alerts
		data.UnknownTrips = report.UnknownTrips
		data.UnknownRoutes = report.UnknownRoutes
		data.UnknownStops = report.UnknownStops
		data.CheckedAt = report.CheckedAt.Format(time.RFC3339)
		if !report.FeedTimestamp.IsZero() {
			data.FeedTimestamp = report.FeedTimestamp.Format(time.RFC3339)
		}
		data.Alerts = alertDisplays(h.rt.AllAlerts())
	}
	h.render(r.Context(), w, "realtime", templates.RealtimePage(data))
}
