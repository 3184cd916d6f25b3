package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer serializes a Feed back into GTFS tables.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteDir writes every table of feed into dir, creating it if needed.
func (w *Writer) WriteDir(feed *Feed, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return w.WriteTo(feed, func(name string) (io.WriteCloser, error) {
		return os.Create(filepath.Join(dir, name))
	})
}

type zipEntry struct{ io.Writer }

func (zipEntry) Close() error { return nil }

// WriteZip writes feed as a zip archive to out.
func (w *Writer) WriteZip(feed *Feed, out io.Writer) error {
	zw := zip.NewWriter(out)
	err := w.WriteTo(feed, func(name string) (io.WriteCloser, error) {
		e, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		return zipEntry{e}, nil
	})
	if err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	return nil
}

type tableFunc func(feed *Feed, emit func([]string) error) error

type outTable struct {
	file   string
	header []string
	// present reports whether the table is written at all.
	present func(feed *Feed) bool
	rows    tableFunc
}

func always(*Feed) bool { return true }

var outTables = []outTable{
	{
		file:    "feed_info.txt",
		header:  []string{"feed_publisher_name", "feed_publisher_url", "feed_lang", "feed_start_date", "feed_end_date", "feed_version"},
		present: func(f *Feed) bool { return f.Info != nil && f.Info.PublisherName != "" && f.Info.PublisherURL != "" },
		rows:    writeFeedInfo,
	},
	{
		file:    "agency.txt",
		header:  []string{"agency_id", "agency_name", "agency_url", "agency_timezone", "agency_lang", "agency_phone", "agency_fare_url", "agency_email"},
		present: always,
		rows:    writeAgencies,
	},
	{
		file: "stops.txt",
		header: []string{"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat", "stop_lon", "zone_id", "stop_url",
			"location_type", "parent_station", "stop_timezone", "wheelchair_boarding", "platform_code"},
		present: always,
		rows:    writeStops,
	},
	{
		file: "routes.txt",
		header: []string{"route_id", "agency_id", "route_short_name", "route_long_name", "route_desc", "route_type",
			"route_url", "route_color", "route_text_color"},
		present: always,
		rows:    writeRoutes,
	},
	{
		file: "trips.txt",
		header: []string{"route_id", "service_id", "trip_id", "trip_headsign", "trip_short_name", "direction_id",
			"block_id", "shape_id", "wheelchair_accessible", "bikes_allowed"},
		present: always,
		rows:    writeTrips,
	},
	{
		file: "stop_times.txt",
		header: []string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence", "stop_headsign",
			"pickup_type", "drop_off_type", "shape_dist_traveled", "timepoint"},
		present: always,
		rows:    writeStopTimes,
	},
	{
		file: "calendar.txt",
		header: []string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
			"start_date", "end_date"},
		present: always,
		rows:    writeCalendar,
	},
	{
		file:    "calendar_dates.txt",
		header:  []string{"service_id", "date", "exception_type"},
		present: always,
		rows:    writeCalendarDates,
	},
	{
		file:    "shapes.txt",
		header:  []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence", "shape_dist_traveled"},
		present: always,
		rows:    writeShapes,
	},
	{
		file:    "frequencies.txt",
		header:  []string{"trip_id", "start_time", "end_time", "headway_secs", "exact_times"},
		present: (*Feed).HasFrequencies,
		rows:    writeFrequencies,
	},
	{
		file:    "transfers.txt",
		header:  []string{"from_stop_id", "to_stop_id", "transfer_type", "min_transfer_time"},
		present: func(f *Feed) bool { return len(f.Transfers) > 0 },
		rows:    writeTransfers,
	},
	{
		file:    "fare_attributes.txt",
		header:  []string{"fare_id", "price", "currency_type", "payment_method", "transfers", "agency_id", "transfer_duration"},
		present: func(f *Feed) bool { return f.Fares.Len() > 0 },
		rows:    writeFareAttributes,
	},
	{
		file:    "fare_rules.txt",
		header:  []string{"fare_id", "route_id", "origin_id", "destination_id", "contains_id"},
		present: func(f *Feed) bool { return f.Fares.Len() > 0 },
		rows:    writeFareRules,
	},
}

// WriteTo writes each table through a writer obtained from create. The
// writer is closed after its table is complete.
func (w *Writer) WriteTo(feed *Feed, create func(name string) (io.WriteCloser, error)) error {
	start := time.Now()
	written := 0
	for _, t := range outTables {
		if !t.present(feed) {
			continue
		}
		if err := w.writeTable(feed, t, create); err != nil {
			return fmt.Errorf("write %s: %w", t.file, err)
		}
		written++
	}
	w.logger.Info("feed written", "tables", written, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (w *Writer) writeTable(feed *Feed, t outTable, create func(string) (io.WriteCloser, error)) (err error) {
	out, err := create(t.file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(out)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	if err := t.rows(feed, cw.Write); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func itoa[T ~uint8 | ~uint16 | ~uint32 | ~int](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// optFloat renders negative sentinel values as empty.
func optFloat(f float64) string {
	if f < 0 {
		return ""
	}
	return ftoa(f)
}

func optInt(v int) string {
	if v < 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func boolInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func stopID(s *Stop) string {
	if s == nil {
		return ""
	}
	return s.ID
}

func agencyID(a *Agency) string {
	if a == nil {
		return ""
	}
	return a.ID
}

func writeFeedInfo(f *Feed, emit func([]string) error) error {
	i := f.Info
	return emit([]string{i.PublisherName, i.PublisherURL, i.Lang, i.StartDate.String(), i.EndDate.String(), i.Version})
}

func writeAgencies(f *Feed, emit func([]string) error) error {
	for a := range f.Agencies.All() {
		if err := emit([]string{a.ID, a.Name, a.URL, a.Timezone, a.Lang, a.Phone, a.FareURL, a.Email}); err != nil {
			return err
		}
	}
	return nil
}

func writeStops(f *Feed, emit func([]string) error) error {
	for s := range f.Stops.All() {
		err := emit([]string{
			s.ID, s.Code, s.Name, s.Desc, ftoa(s.Lat), ftoa(s.Lon), s.ZoneID, s.URL,
			itoa(s.LocationType), stopID(s.Parent), s.Timezone, itoa(s.WheelchairBoarding), s.PlatformCode,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRoutes(f *Feed, emit func([]string) error) error {
	for r := range f.Routes.All() {
		err := emit([]string{
			r.ID, agencyID(r.Agency), r.ShortName, r.LongName, r.Desc, itoa(r.Type), r.URL,
			fmt.Sprintf("%06x", r.Color), fmt.Sprintf("%06x", r.TextColor),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTrips(f *Feed, emit func([]string) error) error {
	for t := range f.Trips.All() {
		dir := ""
		if t.Direction != DirectionNotSet {
			dir = itoa(t.Direction)
		}
		shape := ""
		if t.Shape != nil {
			shape = t.Shape.ID
		}
		err := emit([]string{
			t.Route.ID, t.Service.ID, t.ID, t.Headsign, t.ShortName, dir,
			t.BlockID, shape, itoa(t.WheelchairAccessible), itoa(t.BikesAllowed),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeStopTimes(f *Feed, emit func([]string) error) error {
	for t := range f.Trips.All() {
		for _, st := range t.StopTimes() {
			err := emit([]string{
				t.ID, st.Arrival.String(), st.Departure.String(), stopID(st.Stop), itoa(st.Sequence), st.Headsign,
				itoa(st.PickupType), itoa(st.DropOffType), optFloat(st.ShapeDistTraveled), boolInt(st.Timepoint),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCalendar(f *Feed, emit func([]string) error) error {
	for s := range f.Services.All() {
		if !s.HasServiceDays() {
			continue
		}
		row := make([]string, 0, 10)
		row = append(row, s.ID)
		for bit := range 7 {
			row = append(row, boolInt(s.Days&(1<<bit) != 0))
		}
		row = append(row, s.Begin.String(), s.End.String())
		if err := emit(row); err != nil {
			return err
		}
	}
	return nil
}

func writeCalendarDates(f *Feed, emit func([]string) error) error {
	for s := range f.Services.All() {
		for _, ex := range s.Exceptions() {
			if ex.Type == ExceptionNone {
				continue
			}
			if err := emit([]string{s.ID, ex.Date.String(), itoa(ex.Type)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeShapes(f *Feed, emit func([]string) error) error {
	for sh := range f.Shapes.All() {
		for _, p := range sh.Points() {
			if err := emit([]string{sh.ID, ftoa(p.Lat), ftoa(p.Lon), itoa(p.Sequence), optFloat(p.DistTraveled)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFrequencies(f *Feed, emit func([]string) error) error {
	for t := range f.Trips.All() {
		for _, fr := range t.Frequencies() {
			if err := emit([]string{t.ID, fr.Start.String(), fr.End.String(), itoa(fr.HeadwaySecs), boolInt(fr.ExactTimes)}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTransfers(f *Feed, emit func([]string) error) error {
	for _, tr := range f.Transfers {
		if err := emit([]string{stopID(tr.From), stopID(tr.To), itoa(tr.Type), optInt(tr.MinTransferTime)}); err != nil {
			return err
		}
	}
	return nil
}

func writeFareAttributes(f *Feed, emit func([]string) error) error {
	for fa := range f.Fares.All() {
		transfers := ""
		if fa.Transfers != FareTransfersUnlimited {
			transfers = itoa(fa.Transfers)
		}
		err := emit([]string{
			fa.ID, ftoa(fa.Price), fa.Currency, itoa(fa.PaymentMethod), transfers,
			agencyID(fa.Agency), optInt(fa.TransferDuration),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFareRules(f *Feed, emit func([]string) error) error {
	for fa := range f.Fares.All() {
		for _, r := range fa.Rules() {
			route := ""
			if r.Route != nil {
				route = r.Route.ID
			}
			if err := emit([]string{fa.ID, route, r.OriginID, r.DestinationID, r.ContainsID}); err != nil {
				return err
			}
		}
	}
	return nil
}
