package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"transitfeed/internal/config"
	"transitfeed/internal/gtfs"
	"transitfeed/internal/logging"
	"transitfeed/internal/realtime"
	"transitfeed/internal/storage"
	"transitfeed/internal/templates"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	holder *gtfs.Holder
	rt     *realtime.Store
	db     *storage.DB // nil when no SQLite export is configured
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Handler.
func New(holder *gtfs.Holder, rt *realtime.Store, db *storage.DB, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{holder: holder, rt: rt, db: db, cfg: cfg, logger: logger}
}

// page creates a templates.Page.
func (h *Handler) page(title, currentPath string) templates.Page {
	return templates.Page{Title: title, CurrentPath: currentPath}
}

// feed returns the published feed, answering 503 when none is loaded yet.
func (h *Handler) feed(w http.ResponseWriter) *gtfs.Feed {
	f := h.holder.Load()
	if f == nil {
		http.Error(w, "Feed not loaded", http.StatusServiceUnavailable)
	}
	return f
}

func (h *Handler) render(ctx context.Context, w http.ResponseWriter, name string, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(ctx, w); err != nil {
		h.log(ctx).Error("rendering "+name+" page", "error", err)
	}
}

// log returns the request-scoped logger set by the server middleware.
func (h *Handler) log(ctx context.Context) *slog.Logger {
	if l := logging.FromContext(ctx); l != slog.Default() {
		return l
	}
	return h.logger
}

func routeInfo(r *gtfs.Route) templates.RouteInfo {
	info := templates.RouteInfo{
		RouteID:        r.ID,
		RouteShort:     r.Name(),
		RouteLong:      r.LongName,
		RouteColor:     fmt.Sprintf("%06x", r.Color),
		RouteTextColor: fmt.Sprintf("%06x", r.TextColor),
		RouteType:      r.Type.String(),
	}
	if r.Agency != nil {
		info.Agency = r.Agency.Name
	}
	return info
}

func directionName(id uint8) string {
	switch id {
	case 0:
		return "Outbound"
	case 1:
		return "Inbound"
	case gtfs.DirectionNotSet:
		return ""
	default:
		return fmt.Sprintf("Direction %d", id)
	}
}
