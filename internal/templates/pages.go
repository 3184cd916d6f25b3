package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// CountRow is one line of the summary table.
type CountRow struct {
	Label string
	N     int
}

type SummaryData struct {
	Page
	Source     string
	Agency     string
	Counts     []CountRow
	Bounds     string
	ImportID   string
	ImportedAt string
}

func SummaryPage(d SummaryData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		if d.Agency != "" {
			h.rawf(`<p>Agency: <strong>%s</strong></p>`, d.Agency)
		}
		if d.Source != "" {
			h.rawf(`<p>Source: <code>%s</code></p>`, d.Source)
		}
		h.header("Table", "Rows")
		for _, c := range d.Counts {
			h.raw("<tr>")
			h.cell(c.Label)
			h.cell(strconv.Itoa(c.N))
			h.raw("</tr>")
		}
		h.endTable()
		if d.Bounds != "" {
			h.rawf(`<p>Bounds: %s</p>`, d.Bounds)
		}
		if d.ImportID != "" {
			h.rawf(`<p>Last SQLite export <code>%s</code> at %s</p>`, d.ImportID, d.ImportedAt)
		}
	}))
}

type AgencyRow struct {
	ID       string
	Name     string
	URL      string
	Timezone string
	Routes   int
}

type AgencyListData struct {
	Page
	Agencies []AgencyRow
}

func AgencyListPage(d AgencyListData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		h.header("ID", "Name", "Timezone", "Routes", "URL")
		for _, a := range d.Agencies {
			h.raw("<tr>")
			h.cell(a.ID)
			h.cell(a.Name)
			h.cell(a.Timezone)
			h.cell(strconv.Itoa(a.Routes))
			h.cell(a.URL)
			h.raw("</tr>")
		}
		h.endTable()
	}))
}

// RouteInfo is the display form of a route.
type RouteInfo struct {
	RouteID        string
	RouteShort     string
	RouteLong      string
	RouteColor     string // hex without '#'
	RouteTextColor string
	RouteType      string
	Agency         string
}

type RouteListData struct {
	Page
	Routes []RouteInfo
}

func routeBadge(h *html, r RouteInfo) {
	h.rawf(`<span class="swatch" style="background:#%s;color:#%s">`, r.RouteColor, r.RouteTextColor)
	h.link("/routes/", r.RouteID, r.RouteShort)
	h.raw(`</span>`)
}

func RouteListPage(d RouteListData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		h.header("Route", "Name", "Type", "Agency")
		for _, r := range d.Routes {
			h.raw("<tr><td>")
			routeBadge(h, r)
			h.raw("</td>")
			h.cell(r.RouteLong)
			h.cell(r.RouteType)
			h.cell(r.Agency)
			h.raw("</tr>")
		}
		h.endTable()
	}))
}

// AlertDisplay is a realtime alert shown on route and stop pages.
type AlertDisplay struct {
	HeaderText string
	DescText   string
	Effect     string
}

func alerts(h *html, as []AlertDisplay) {
	for _, a := range as {
		h.raw(`<div class="alert"><strong>`)
		h.text(a.Effect)
		h.raw(`</strong> `)
		h.text(a.HeaderText)
		if a.DescText != "" {
			h.raw(`<p>`)
			h.text(a.DescText)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
	}
}

type TripRow struct {
	TripID    string
	Headsign  string
	Direction string
	ServiceID string
	Stops     int
	First     string
	Last      string
}

type RouteDetailData struct {
	Page
	Route  RouteInfo
	Trips  []TripRow
	Alerts []AlertDisplay
}

func RouteDetailPage(d RouteDetailData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		h.raw("<p>")
		routeBadge(h, d.Route)
		h.raw(" ")
		h.text(d.Route.RouteLong)
		h.rawf(` (%s, %s)</p>`, d.Route.RouteType, d.Route.Agency)
		alerts(h, d.Alerts)
		h.header("Trip", "Headsign", "Direction", "Service", "Stops", "First", "Last")
		for _, t := range d.Trips {
			h.raw("<tr><td>")
			h.link("/trips/", t.TripID, t.TripID)
			h.raw("</td>")
			h.cell(t.Headsign)
			h.cell(t.Direction)
			h.raw("<td>")
			h.link("/services/", t.ServiceID, t.ServiceID)
			h.raw("</td>")
			h.cell(strconv.Itoa(t.Stops))
			h.cell(t.First)
			h.cell(t.Last)
			h.raw("</tr>")
		}
		h.endTable()
	}))
}

// StopRef links to a stop.
type StopRef struct {
	StopID   string
	StopName string
}

type StopDetailData struct {
	Page
	StopID       string
	Code         string
	Name         string
	Lat, Lon     string
	LocationType string
	Parent       *StopRef
	Children     []StopRef
	Routes       []RouteInfo
	Alerts       []AlertDisplay
}

func StopDetailPage(d StopDetailData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		h.rawf(`<p>%s %s · %s, %s</p>`, d.LocationType, d.Code, d.Lat, d.Lon)
		if d.Parent != nil {
			h.raw("<p>Station: ")
			h.link("/stops/", d.Parent.StopID, d.Parent.StopName)
			h.raw("</p>")
		}
		alerts(h, d.Alerts)
		if len(d.Children) > 0 {
			h.raw("<h2>Platforms</h2><ul>")
			for _, c := range d.Children {
				h.raw("<li>")
				h.link("/stops/", c.StopID, c.StopName)
				h.raw("</li>")
			}
			h.raw("</ul>")
		}
		if len(d.Routes) > 0 {
			h.raw("<h2>Routes</h2><p>")
			for _, r := range d.Routes {
				routeBadge(h, r)
				h.raw(" ")
			}
			h.raw("</p>")
		}
	}))
}

type StopTimeRow struct {
	Sequence  uint32
	StopID    string
	StopName  string
	Arrival   string
	Departure string
}

type FrequencyRow struct {
	Start, End string
	Headway    int
	Exact      bool
}

type TripDetailData struct {
	Page
	TripID      string
	Route       RouteInfo
	Headsign    string
	ServiceID   string
	ShapeID     string
	StopTimes   []StopTimeRow
	Frequencies []FrequencyRow
}

func TripDetailPage(d TripDetailData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		h.raw("<p>")
		routeBadge(h, d.Route)
		h.raw(" ")
		h.text(d.Headsign)
		h.raw(" · service ")
		h.link("/services/", d.ServiceID, d.ServiceID)
		if d.ShapeID != "" {
			h.raw(" · shape ")
			h.link("/api/shapes/", d.ShapeID, d.ShapeID)
		}
		h.raw("</p>")
		h.header("#", "Stop", "Arrival", "Departure")
		for _, st := range d.StopTimes {
			h.raw("<tr>")
			h.cell(strconv.FormatUint(uint64(st.Sequence), 10))
			h.raw("<td>")
			h.link("/stops/", st.StopID, st.StopName)
			h.raw("</td>")
			h.cell(st.Arrival)
			h.cell(st.Departure)
			h.raw("</tr>")
		}
		h.endTable()
		if len(d.Frequencies) > 0 {
			h.raw("<h2>Frequencies</h2>")
			h.header("Start", "End", "Headway (s)", "Exact")
			for _, f := range d.Frequencies {
				h.raw("<tr>")
				h.cell(f.Start)
				h.cell(f.End)
				h.cell(strconv.Itoa(f.Headway))
				h.cell(strconv.FormatBool(f.Exact))
				h.raw("</tr>")
			}
			h.endTable()
		}
	}))
}

type ExceptionRow struct {
	Date string
	Type string
}

type ServiceData struct {
	Page
	ServiceID  string
	Days       string
	Begin, End string
	Exceptions []ExceptionRow
	// CheckDate is the queried YYYYMMDD date; Active is only meaningful
	// when it is set.
	CheckDate string
	Active    bool
}

func ServicePage(d ServiceData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		if d.Begin != "" {
			h.rawf(`<p>%s from %s to %s</p>`, d.Days, d.Begin, d.End)
		} else {
			h.raw(`<p>No weekly pattern; dates come from exceptions only.</p>`)
		}
		if d.CheckDate != "" {
			state := "not running"
			if d.Active {
				state = "running"
			}
			h.rawf(`<p>On %s: <strong>%s</strong></p>`, d.CheckDate, state)
		}
		h.raw(`<form method="get"><input name="date" placeholder="YYYYMMDD"><button>Check</button></form>`)
		if len(d.Exceptions) > 0 {
			h.header("Date", "Exception")
			for _, e := range d.Exceptions {
				h.raw("<tr>")
				h.cell(e.Date)
				h.cell(e.Type)
				h.raw("</tr>")
			}
			h.endTable()
		}
	}))
}

type RealtimeData struct {
	Page
	Configured    bool
	Loaded        bool
	FeedTimestamp string
	CheckedAt     string
	Entities      int
	TripUpdates   int
	Vehicles      int
	AlertCount    int
	UnknownTrips  []string
	UnknownRoutes []string
	UnknownStops  []string
	Alerts        []AlertDisplay
}

func idList(h *html, title string, ids []string) {
	h.rawf(`<h2>%s (%s)</h2>`, title, strconv.Itoa(len(ids)))
	if len(ids) == 0 {
		return
	}
	h.raw("<ul>")
	for _, id := range ids {
		h.raw("<li><code>")
		h.text(id)
		h.raw("</code></li>")
	}
	h.raw("</ul>")
}

func RealtimePage(d RealtimeData) templ.Component {
	return Layout(d.Page, component(func(h *html) {
		if !d.Loaded {
			if d.Configured {
				h.raw(`<p>No realtime message has been checked yet.</p>`)
			} else {
				h.raw(`<p>No realtime feed is configured.</p>`)
			}
			return
		}
		h.rawf(`<p>Feed timestamp %s, checked at %s</p>`, d.FeedTimestamp, d.CheckedAt)
		h.header("Entities", "Trip updates", "Vehicles", "Alerts")
		h.raw("<tr>")
		for _, n := range []int{d.Entities, d.TripUpdates, d.Vehicles, d.AlertCount} {
			h.cell(strconv.Itoa(n))
		}
		h.raw("</tr>")
		h.endTable()
		idList(h, "Unknown trips", d.UnknownTrips)
		idList(h, "Unknown routes", d.UnknownRoutes)
		idList(h, "Unknown stops", d.UnknownStops)
		alerts(h, d.Alerts)
	}))
}
