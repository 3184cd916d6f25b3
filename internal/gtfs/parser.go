package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"transitfeed/internal/tabular"
)

// ErrMissingTable is wrapped by the error returned when a required table is
// not part of the dataset.
var ErrMissingTable = errors.New("required table missing")

// Parser assembles a Feed from the tables of a GTFS dataset.
type Parser struct {
	strict bool
	logger *slog.Logger
}

// NewParser creates a Parser. In strict mode every malformed or
// out-of-range field is an error; otherwise fields with a documented
// default fall back to it.
func NewParser(strict bool, logger *slog.Logger) *Parser {
	return &Parser{strict: strict, logger: logger}
}

type table struct {
	file     string
	required bool
	parse    func(d decoder, feed *Feed) error
}

// tables lists the dataset in dependency order: every table only refers to
// entities of tables above it.
var tables = []table{
	{"feed_info.txt", false, parseFeedInfo},
	{"agency.txt", true, parseAgencies},
	{"stops.txt", true, parseStops},
	{"routes.txt", true, parseRoutes},
	{"calendar.txt", false, parseCalendar},
	{"calendar_dates.txt", false, parseCalendarDates},
	{"shapes.txt", false, parseShapes},
	{"trips.txt", true, parseTrips},
	{"stop_times.txt", true, parseStopTimes},
	{"frequencies.txt", false, parseFrequencies},
	{"transfers.txt", false, parseTransfers},
	{"fare_attributes.txt", false, parseFareAttributes},
	{"fare_rules.txt", false, parseFareRules},
}

// Parse reads every table of fsys into feed. Tables are read one after the
// other; ctx is checked between tables. The first error aborts the parse
// and, for positioned errors, names the table file.
func (p *Parser) Parse(ctx context.Context, fsys fs.FS, feed *Feed) error {
	start := time.Now()
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.parseTable(fsys, t, feed); err != nil {
			return err
		}
	}
	feed.Finalize()

	s := feed.Summary()
	p.logger.Info("feed parsed",
		"agencies", s.Agencies,
		"stops", s.Stops,
		"routes", s.Routes,
		"services", s.Services,
		"shapes", s.Shapes,
		"trips", s.Trips,
		"stop_times", s.StopTimes,
		"frequencies", s.Frequencies,
		"transfers", s.Transfers,
		"fares", s.Fares,
		"strict", p.strict,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// ParsePath opens a directory or zip archive and parses it into feed.
func (p *Parser) ParsePath(ctx context.Context, path string, feed *Feed) error {
	fsys, closer, err := OpenSource(path)
	if err != nil {
		return err
	}
	defer closer.Close()
	return p.Parse(ctx, fsys, feed)
}

func (p *Parser) parseTable(fsys fs.FS, t table, feed *Feed) error {
	f, err := fsys.Open(t.file)
	if errors.Is(err, fs.ErrNotExist) {
		if t.required {
			return &tabular.Error{File: t.file, Line: -1, Msg: "File not found", Err: ErrMissingTable}
		}
		p.logger.Debug("optional table absent", "file", t.file)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", t.file, err)
	}
	defer f.Close()

	r, err := tabular.NewReader(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.file, err)
	}
	if dup := r.Header().Duplicates(); len(dup) > 0 {
		p.logger.Warn("repeated columns, first occurrence used", "file", t.file, "columns", dup)
	}
	if err := t.parse(decoder{r: r, strict: p.strict}, feed); err != nil {
		var te *tabular.Error
		if errors.As(err, &te) {
			return te.WithFile(t.file)
		}
		return fmt.Errorf("parse %s: %w", t.file, err)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("parse %s: %w", t.file, err)
	}
	p.logger.Debug("table parsed", "file", t.file, "lines", r.Line())
	return nil
}
