package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/templates"
)

// Summary serves the feed overview page.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	feed := h.feed(w)
	if feed == nil {
		return
	}

	s := feed.Summary()
	data := templates.SummaryData{
		Page:   h.page("Feed summary", "/"),
		Source: h.cfg.FeedSource(),
		Counts: []templates.CountRow{
			{Label: "agency.txt", N: s.Agencies},
			{Label: "stops.txt", N: s.Stops},
			{Label: "routes.txt", N: s.Routes},
			{Label: "services", N: s.Services},
			{Label: "trips.txt", N: s.Trips},
			{Label: "stop_times.txt", N: s.StopTimes},
			{Label: "frequencies.txt", N: s.Frequencies},
			{Label: "shapes", N: s.Shapes},
			{Label: "shapes.txt", N: s.ShapePoints},
			{Label: "transfers.txt", N: s.Transfers},
			{Label: "fare_attributes.txt", N: s.Fares},
			{Label: "fare_rules.txt", N: s.FareRules},
		},
		Bounds: bounds(feed),
	}
	if a := feed.FirstAgency(); a != nil {
		data.Agency = a.Name
	}
	if h.db != nil {
		ctx := r.Context()
		id, err := h.db.GetMetadata(ctx, "import_id")
		if err != nil {
			h.log(ctx).Warn("reading import metadata", "error", err)
		}
		at, _ := h.db.GetMetadata(ctx, "imported_at")
		data.ImportID, data.ImportedAt = id, at
	}
	h.render(r.Context(), w, "summary", templates.SummaryPage(data))
}

func bounds(feed *gtfs.Feed) string {
	b := feed.Bounds
	if b.Empty() {
		return ""
	}
	return fmt.Sprintf("%.5f,%.5f to %.5f,%.5f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

type summaryResponse struct {
	Agency  string       `json:"agency,omitempty"`
	Source  string       `json:"source,omitempty"`
	Bounds  *boundsJSON  `json:"bounds,omitempty"`
	Summary gtfs.Summary `json:"summary"`
}

type boundsJSON struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// APISummary serves the per-table counts as JSON.
func (h *Handler) APISummary(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	resp := summaryResponse{Source: h.cfg.FeedSource(), Summary: feed.Summary()}
	if a := feed.FirstAgency(); a != nil {
		resp.Agency = a.Name
	}
	if b := feed.Bounds; !b.Empty() {
		resp.Bounds = &boundsJSON{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log(r.Context()).Error("encoding summary", "error", err)
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.holder.Load() == nil {
		w.Write([]byte("loading\n"))
		return
	}
	w.Write([]byte("ok\n"))
}

// AgencyList serves every agency with its route count.
func (h *Handler) AgencyList(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	routes := map[*gtfs.Agency]int{}
	for rt := range feed.Routes.All() {
		routes[rt.Agency]++
	}
	var rows []templates.AgencyRow
	for a := range feed.Agencies.All() {
		rows = append(rows, templates.AgencyRow{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: a.Timezone,
			Routes:   routes[a],
		})
	}
	h.render(r.Context(), w, "agency list", templates.AgencyListPage(templates.AgencyListData{
		Page:     h.page("Agencies", "/agencies"),
		Agencies: rows,
	}))
}
