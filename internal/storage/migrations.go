package storage

import "fmt"

// migrate creates the export schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrations applied", "statements", len(migrations))
	return nil
}

// Tables lists the GTFS tables of the schema, children before parents, so
// deleting in this order never violates a foreign key.
var Tables = []string{
	"fare_rules", "fare_attributes", "transfers", "frequencies", "stop_times",
	"trips", "shapes", "calendar_dates", "calendar", "routes", "stops", "agency", "feed_info",
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS feed_info (
		feed_publisher_name TEXT NOT NULL,
		feed_publisher_url  TEXT NOT NULL,
		feed_lang           TEXT,
		feed_start_date     TEXT,
		feed_end_date       TEXT,
		feed_version        TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS agency (
		agency_id       TEXT PRIMARY KEY,
		agency_name     TEXT NOT NULL,
		agency_url      TEXT NOT NULL,
		agency_timezone TEXT NOT NULL,
		agency_lang     TEXT,
		agency_phone    TEXT,
		agency_fare_url TEXT,
		agency_email    TEXT
	)`,

	// parent_station has no foreign key: children may be exported before
	// their station.
	`CREATE TABLE IF NOT EXISTS stops (
		stop_id             TEXT PRIMARY KEY,
		stop_code           TEXT,
		stop_name           TEXT NOT NULL,
		stop_desc           TEXT,
		stop_lat            REAL NOT NULL,
		stop_lon            REAL NOT NULL,
		zone_id             TEXT,
		stop_url            TEXT,
		location_type       INTEGER NOT NULL DEFAULT 0,
		parent_station      TEXT,
		stop_timezone       TEXT,
		wheelchair_boarding INTEGER NOT NULL DEFAULT 0,
		platform_code       TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS routes (
		route_id         TEXT PRIMARY KEY,
		agency_id        TEXT REFERENCES agency(agency_id),
		route_short_name TEXT,
		route_long_name  TEXT,
		route_desc       TEXT,
		route_type       INTEGER NOT NULL,
		route_url        TEXT,
		route_color      TEXT NOT NULL,
		route_text_color TEXT NOT NULL
	)`,

	// Services defined only through calendar_dates have NULL dates and no
	// weekdays.
	`CREATE TABLE IF NOT EXISTS calendar (
		service_id TEXT PRIMARY KEY,
		monday     INTEGER NOT NULL DEFAULT 0,
		tuesday    INTEGER NOT NULL DEFAULT 0,
		wednesday  INTEGER NOT NULL DEFAULT 0,
		thursday   INTEGER NOT NULL DEFAULT 0,
		friday     INTEGER NOT NULL DEFAULT 0,
		saturday   INTEGER NOT NULL DEFAULT 0,
		sunday     INTEGER NOT NULL DEFAULT 0,
		start_date TEXT,
		end_date   TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS calendar_dates (
		service_id     TEXT NOT NULL REFERENCES calendar(service_id),
		date           TEXT NOT NULL,
		exception_type INTEGER NOT NULL,
		PRIMARY KEY (service_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS shapes (
		shape_id            TEXT NOT NULL,
		shape_pt_lat        REAL NOT NULL,
		shape_pt_lon        REAL NOT NULL,
		shape_pt_sequence   INTEGER NOT NULL,
		shape_dist_traveled REAL,
		PRIMARY KEY (shape_id, shape_pt_sequence)
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		trip_id               TEXT PRIMARY KEY,
		route_id              TEXT NOT NULL REFERENCES routes(route_id),
		service_id            TEXT NOT NULL REFERENCES calendar(service_id),
		trip_headsign         TEXT,
		trip_short_name       TEXT,
		direction_id          INTEGER,
		block_id              TEXT,
		shape_id              TEXT,
		wheelchair_accessible INTEGER NOT NULL DEFAULT 0,
		bikes_allowed         INTEGER NOT NULL DEFAULT 0
	)`,

	// Empty arrival and departure times are stored as NULL.
	`CREATE TABLE IF NOT EXISTS stop_times (
		trip_id             TEXT NOT NULL REFERENCES trips(trip_id),
		arrival_time        TEXT,
		departure_time      TEXT,
		stop_id             TEXT NOT NULL REFERENCES stops(stop_id),
		stop_sequence       INTEGER NOT NULL,
		stop_headsign       TEXT,
		pickup_type         INTEGER NOT NULL DEFAULT 0,
		drop_off_type       INTEGER NOT NULL DEFAULT 0,
		shape_dist_traveled REAL,
		timepoint           INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (trip_id, stop_sequence)
	)`,

	`CREATE TABLE IF NOT EXISTS frequencies (
		trip_id      TEXT NOT NULL REFERENCES trips(trip_id),
		start_time   TEXT NOT NULL,
		end_time     TEXT NOT NULL,
		headway_secs INTEGER NOT NULL,
		exact_times  INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS transfers (
		from_stop_id      TEXT NOT NULL REFERENCES stops(stop_id),
		to_stop_id        TEXT NOT NULL REFERENCES stops(stop_id),
		transfer_type     INTEGER NOT NULL,
		min_transfer_time INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS fare_attributes (
		fare_id           TEXT PRIMARY KEY,
		price             REAL NOT NULL,
		currency_type     TEXT NOT NULL,
		payment_method    INTEGER NOT NULL,
		transfers         INTEGER,
		agency_id         TEXT REFERENCES agency(agency_id),
		transfer_duration INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS fare_rules (
		fare_id        TEXT NOT NULL REFERENCES fare_attributes(fare_id),
		route_id       TEXT REFERENCES routes(route_id),
		origin_id      TEXT,
		destination_id TEXT,
		contains_id    TEXT
	)`,

	// Import bookkeeping (import_id, source, imported_at, bounds, etc.)
	`CREATE TABLE IF NOT EXISTS feed_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stop_times_stop ON stop_times(stop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_route ON trips(route_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_service ON trips(service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_dates_date ON calendar_dates(date)`,
	`CREATE INDEX IF NOT EXISTS idx_stops_parent ON stops(parent_station)`,
}
