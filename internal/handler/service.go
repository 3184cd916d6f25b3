package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/templates"
)

var dayNames = []struct {
	bit  uint8
	name string
}{
	{gtfs.Monday, "Mon"},
	{gtfs.Tuesday, "Tue"},
	{gtfs.Wednesday, "Wed"},
	{gtfs.Thursday, "Thu"},
	{gtfs.Friday, "Fri"},
	{gtfs.Saturday, "Sat"},
	{gtfs.Sunday, "Sun"},
}

// ServiceDetail serves a calendar. With ?date=YYYYMMDD it also reports
// whether the service runs on that date.
func (h *Handler) ServiceDetail(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	svc := feed.Services.Get(r.PathValue("id"))
	if svc == nil {
		http.NotFound(w, r)
		return
	}

	data := templates.ServiceData{
		Page:      h.page(fmt.Sprintf("Service %s", svc.ID), ""),
		ServiceID: svc.ID,
		Days:      weekdays(svc.Days),
	}
	if svc.HasServiceDays() {
		data.Begin, data.End = svc.Begin.String(), svc.End.String()
	}
	for _, e := range svc.Exceptions() {
		kind := "added"
		if e.Type == gtfs.ServiceRemoved {
			kind = "removed"
		}
		data.Exceptions = append(data.Exceptions, templates.ExceptionRow{Date: e.Date.String(), Type: kind})
	}

	if q := r.URL.Query().Get("date"); q != "" {
		d, ok := parseDate(q)
		if !ok {
			http.Error(w, "date must be YYYYMMDD", http.StatusBadRequest)
			return
		}
		data.CheckDate = d.String()
		data.Active = svc.IsActiveOn(d)
	}
	h.render(r.Context(), w, "service", templates.ServicePage(data))
}

func parseDate(s string) (gtfs.Date, bool) {
	if len(s) != 8 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 19000101 {
		return 0, false
	}
	d := gtfs.DateFromInt(n)
	if d.Month() < 1 || d.Month() > 12 || d.Day() < 1 || d.Day() > 31 {
		return 0, false
	}
	return d, true
}

func weekdays(days uint8) string {
	var names []string
	for _, d := range dayNames {
		if days&d.bit != 0 {
			names = append(names, d.name)
		}
	}
	if len(names) == 0 {
		return "No weekdays"
	}
	return strings.Join(names, ", ")
}
