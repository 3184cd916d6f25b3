package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"transitfeed/internal/logging"
	"transitfeed/internal/storage"
)

// Importer exports a resolved Feed into SQLite.
type Importer struct {
	db     *storage.DB
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(db *storage.DB, logger *slog.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

type exportTable struct {
	name  string
	query string
	rows  func(feed *Feed, exec func(args ...any) error) error
}

var exportTables = []exportTable{
	{"feed_info", `INSERT INTO feed_info (feed_publisher_name, feed_publisher_url, feed_lang,
		feed_start_date, feed_end_date, feed_version) VALUES (?, ?, ?, ?, ?, ?)`, exportFeedInfo},
	{"agency", `INSERT INTO agency (agency_id, agency_name, agency_url, agency_timezone,
		agency_lang, agency_phone, agency_fare_url, agency_email) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, exportAgencies},
	{"stops", `INSERT INTO stops (stop_id, stop_code, stop_name, stop_desc, stop_lat, stop_lon,
		zone_id, stop_url, location_type, parent_station, stop_timezone, wheelchair_boarding, platform_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, exportStops},
	{"routes", `INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name, route_desc,
		route_type, route_url, route_color, route_text_color) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, exportRoutes},
	{"calendar", `INSERT INTO calendar (service_id, monday, tuesday, wednesday, thursday,
		friday, saturday, sunday, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, exportCalendar},
	{"calendar_dates", `INSERT INTO calendar_dates (service_id, date, exception_type) VALUES (?, ?, ?)`, exportCalendarDates},
	{"shapes", `INSERT INTO shapes (shape_id, shape_pt_lat, shape_pt_lon, shape_pt_sequence,
		shape_dist_traveled) VALUES (?, ?, ?, ?, ?)`, exportShapes},
	{"trips", `INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, trip_short_name,
		direction_id, block_id, shape_id, wheelchair_accessible, bikes_allowed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, exportTrips},
	{"stop_times", `INSERT INTO stop_times (trip_id, arrival_time, departure_time, stop_id,
		stop_sequence, stop_headsign, pickup_type, drop_off_type, shape_dist_traveled, timepoint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, exportStopTimes},
	{"frequencies", `INSERT INTO frequencies (trip_id, start_time, end_time, headway_secs, exact_times)
		VALUES (?, ?, ?, ?, ?)`, exportFrequencies},
	{"transfers", `INSERT INTO transfers (from_stop_id, to_stop_id, transfer_type, min_transfer_time)
		VALUES (?, ?, ?, ?)`, exportTransfers},
	{"fare_attributes", `INSERT INTO fare_attributes (fare_id, price, currency_type, payment_method,
		transfers, agency_id, transfer_duration) VALUES (?, ?, ?, ?, ?, ?, ?)`, exportFareAttributes},
	{"fare_rules", `INSERT INTO fare_rules (fare_id, route_id, origin_id, destination_id, contains_id)
		VALUES (?, ?, ?, ?, ?)`, exportFareRules},
}

// Import replaces the database contents with feed. source names where the
// feed was read from and is recorded with the import. The whole export
// runs in a single transaction.
func (imp *Importer) Import(ctx context.Context, feed *Feed, source string) error {
	start := time.Now()
	importID := uuid.NewString()

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, imp.logger, "sqlite_export")

	if err := storage.Clear(ctx, tx); err != nil {
		return err
	}

	for _, t := range exportTables {
		stmt, err := tx.PrepareContext(ctx, t.query)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", t.name, err)
		}
		count := 0
		err = t.rows(feed, func(args ...any) error {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
			count++
			if count%500000 == 0 {
				imp.logger.Info("exporting", "table", t.name, "rows", count)
			}
			return nil
		})
		stmt.Close()
		if err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.name, count, err)
		}
		imp.logger.Debug("exported table", "table", t.name, "rows", count)
	}

	meta := map[string]string{
		"import_id":   importID,
		"source":      source,
		"imported_at": time.Now().UTC().Format(time.RFC3339),
	}
	if !feed.Bounds.Empty() {
		meta["bounds"] = fmt.Sprintf("%f,%f,%f,%f",
			feed.Bounds.MinLat, feed.Bounds.MinLon, feed.Bounds.MaxLat, feed.Bounds.MaxLon)
	}
	for k, v := range meta {
		if err := storage.SetMetadataTx(ctx, tx, k, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s := feed.Summary()
	logging.LogOperation(imp.logger, "sqlite export complete",
		slog.String("import_id", importID),
		slog.String("path", imp.db.Path),
		slog.Int("stops", s.Stops),
		slog.Int("trips", s.Trips),
		slog.Int("stop_times", s.StopTimes),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t Time) any {
	if t.Empty() {
		return nil
	}
	return t.String()
}

func nullDate(d Date) any {
	if d.Empty() {
		return nil
	}
	return d.String()
}

func nullFloat(f float64) any {
	if f < 0 {
		return nil
	}
	return f
}

func nullInt(v int) any {
	if v < 0 {
		return nil
	}
	return v
}

func exportFeedInfo(f *Feed, exec func(...any) error) error {
	if f.Info == nil {
		return nil
	}
	i := f.Info
	return exec(i.PublisherName, i.PublisherURL, nullStr(i.Lang), nullDate(i.StartDate), nullDate(i.EndDate), nullStr(i.Version))
}

func exportAgencies(f *Feed, exec func(...any) error) error {
	for a := range f.Agencies.All() {
		if err := exec(a.ID, a.Name, a.URL, a.Timezone, nullStr(a.Lang), nullStr(a.Phone), nullStr(a.FareURL), nullStr(a.Email)); err != nil {
			return err
		}
	}
	return nil
}

func exportStops(f *Feed, exec func(...any) error) error {
	for s := range f.Stops.All() {
		err := exec(s.ID, nullStr(s.Code), s.Name, nullStr(s.Desc), s.Lat, s.Lon, nullStr(s.ZoneID), nullStr(s.URL),
			int(s.LocationType), nullStr(stopID(s.Parent)), nullStr(s.Timezone), int(s.WheelchairBoarding), nullStr(s.PlatformCode))
		if err != nil {
			return err
		}
	}
	return nil
}

func exportRoutes(f *Feed, exec func(...any) error) error {
	for r := range f.Routes.All() {
		err := exec(r.ID, agencyID(r.Agency), nullStr(r.ShortName), nullStr(r.LongName), nullStr(r.Desc),
			int(r.Type), nullStr(r.URL), fmt.Sprintf("%06x", r.Color), fmt.Sprintf("%06x", r.TextColor))
		if err != nil {
			return err
		}
	}
	return nil
}

func exportCalendar(f *Feed, exec func(...any) error) error {
	for s := range f.Services.All() {
		args := []any{s.ID}
		for bit := range 7 {
			args = append(args, int(s.Days>>bit&1))
		}
		args = append(args, nullDate(s.Begin), nullDate(s.End))
		if err := exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func exportCalendarDates(f *Feed, exec func(...any) error) error {
	for s := range f.Services.All() {
		for _, ex := range s.Exceptions() {
			if ex.Type == ExceptionNone {
				continue
			}
			if err := exec(s.ID, ex.Date.String(), int(ex.Type)); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportShapes(f *Feed, exec func(...any) error) error {
	for sh := range f.Shapes.All() {
		for _, p := range sh.Points() {
			if err := exec(sh.ID, p.Lat, p.Lon, p.Sequence, nullFloat(p.DistTraveled)); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportTrips(f *Feed, exec func(...any) error) error {
	for t := range f.Trips.All() {
		var dir any
		if t.Direction != DirectionNotSet {
			dir = int(t.Direction)
		}
		var shape any
		if t.Shape != nil {
			shape = t.Shape.ID
		}
		err := exec(t.ID, t.Route.ID, t.Service.ID, nullStr(t.Headsign), nullStr(t.ShortName), dir,
			nullStr(t.BlockID), shape, int(t.WheelchairAccessible), int(t.BikesAllowed))
		if err != nil {
			return err
		}
	}
	return nil
}

func exportStopTimes(f *Feed, exec func(...any) error) error {
	for t := range f.Trips.All() {
		for _, st := range t.StopTimes() {
			err := exec(t.ID, nullTime(st.Arrival), nullTime(st.Departure), st.Stop.ID, st.Sequence, nullStr(st.Headsign),
				int(st.PickupType), int(st.DropOffType), nullFloat(st.ShapeDistTraveled), st.Timepoint)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func exportFrequencies(f *Feed, exec func(...any) error) error {
	for t := range f.Trips.All() {
		for _, fr := range t.Frequencies() {
			if err := exec(t.ID, fr.Start.String(), fr.End.String(), int(fr.HeadwaySecs), fr.ExactTimes); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportTransfers(f *Feed, exec func(...any) error) error {
	for _, tr := range f.Transfers {
		if err := exec(tr.From.ID, tr.To.ID, int(tr.Type), nullInt(tr.MinTransferTime)); err != nil {
			return err
		}
	}
	return nil
}

func exportFareAttributes(f *Feed, exec func(...any) error) error {
	for fa := range f.Fares.All() {
		var transfers any
		if fa.Transfers != FareTransfersUnlimited {
			transfers = int(fa.Transfers)
		}
		err := exec(fa.ID, fa.Price, fa.Currency, int(fa.PaymentMethod), transfers,
			agencyID(fa.Agency), nullInt(fa.TransferDuration))
		if err != nil {
			return err
		}
	}
	return nil
}

func exportFareRules(f *Feed, exec func(...any) error) error {
	for fa := range f.Fares.All() {
		for _, r := range fa.Rules() {
			var route any
			if r.Route != nil {
				route = r.Route.ID
			}
			if err := exec(fa.ID, route, nullStr(r.OriginID), nullStr(r.DestinationID), nullStr(r.ContainsID)); err != nil {
				return err
			}
		}
	}
	return nil
}
