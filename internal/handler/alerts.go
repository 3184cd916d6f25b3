package handler

import (
	"transitfeed/internal/realtime"
	"transitfeed/internal/templates"
)

// alertsForStop returns the realtime alerts that name a stop.
func (h *Handler) alertsForStop(stopID string) []templates.AlertDisplay {
	return alertDisplays(h.rt.AlertsForStop(stopID))
}

// alertsForRoute returns the realtime alerts that name a route.
func (h *Handler) alertsForRoute(routeID string) []templates.AlertDisplay {
	return alertDisplays(h.rt.AlertsForRoute(routeID))
}

func alertDisplays(rtAlerts []realtime.Alert) []templates.AlertDisplay {
	var alerts []templates.AlertDisplay
	for _, a := range rtAlerts {
		// Deduplicate: feeds often repeat one alert per informed entity.
		if alertExists(alerts, a.HeaderText) {
			continue
		}
		alerts = append(alerts, templates.AlertDisplay{
			HeaderText: a.HeaderText,
			DescText:   a.DescText,
			Effect:     realtime.EffectLabel(a.Effect),
		})
	}
	return alerts
}

func alertExists(alerts []templates.AlertDisplay, text string) bool {
	for _, a := range alerts {
		if a.HeaderText == text {
			return true
		}
	}
	return false
}
