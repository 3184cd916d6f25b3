package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"transitfeed/internal/config"
	"transitfeed/internal/crosscheck"
	"transitfeed/internal/gtfs"
	"transitfeed/internal/logging"
	"transitfeed/internal/realtime"
	"transitfeed/internal/server"
	"transitfeed/internal/storage"
	"transitfeed/internal/tabular"
)

type options struct {
	writeZip   string
	crosscheck bool
	rtFile     string
	serve      bool
}

func main() {
	configPath := flag.String("config", "", "YAML config file (default $TRANSITFEED_CONFIG)")
	feed := flag.String("feed", "", "GTFS zip, directory or URL")
	strict := flag.Bool("strict", false, "Reject malformed optional fields instead of using defaults")
	store := flag.String("store", "", "Entity store strategy: hash or sorted")
	writeDir := flag.String("write-dir", "", "Write the parsed feed back as .txt files into this directory")
	exportDB := flag.String("export-db", "", "Export the parsed feed into this SQLite database")
	port := flag.Int("port", 0, "HTTP server port")
	var opts options
	flag.StringVar(&opts.writeZip, "write-zip", "", "Write the parsed feed back as a zip archive")
	flag.BoolVar(&opts.crosscheck, "crosscheck", false, "Compare table counts with an independent parser")
	flag.StringVar(&opts.rtFile, "rt-file", "", "Check a GTFS-Realtime protobuf file against the feed")
	flag.BoolVar(&opts.serve, "serve", false, "Serve the feed inspector and reload the feed daily")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "feed":
			if strings.HasPrefix(*feed, "http://") || strings.HasPrefix(*feed, "https://") {
				cfg.FeedPath, cfg.FeedURL = "", *feed
			} else {
				cfg.FeedPath = *feed
			}
		case "strict":
			cfg.Strict = *strict
		case "store":
			cfg.StoreStrategy = *store
		case "write-dir":
			cfg.OutDir = *writeDir
		case "export-db":
			cfg.DBPath = *exportDB
		case "port":
			cfg.Port = *port
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, level, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		err = serve(ctx, cfg, logger)
	} else {
		err = run(ctx, cfg, opts, logger)
	}
	if err != nil {
		var terr *tabular.Error
		if errors.As(err, &terr) {
			// The positioned message is the whole diagnostic.
			fmt.Fprintln(os.Stderr, terr)
		} else {
			logger.Error("transitfeed failed", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

// run parses the feed once and performs the requested outputs.
func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	if cfg.FeedSource() == "" {
		return errors.New("no feed given: use -feed or TRANSITFEED_FEED_PATH")
	}
	strategy, err := gtfs.ParseStoreStrategy(cfg.StoreStrategy)
	if err != nil {
		return err
	}

	path := cfg.FeedPath
	if path == "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			return fmt.Errorf("create download dir: %w", err)
		}
		path, _, err = gtfs.NewDownloader(cfg.FeedURL, cfg.DownloadDir, logger).Download(ctx)
		if err != nil {
			return err
		}
		defer os.Remove(path)
	}

	start := time.Now()
	feed := gtfs.NewFeed(strategy)
	if err := gtfs.NewParser(cfg.Strict, logger).ParsePath(ctx, path, feed); err != nil {
		return err
	}
	logging.LogOperation(logger, "feed loaded",
		slog.String("source", cfg.FeedSource()),
		slog.String("store", cfg.StoreStrategy),
		slog.Duration("duration", time.Since(start)),
	)

	w := gtfs.NewWriter(logger)
	if cfg.OutDir != "" {
		if err := w.WriteDir(feed, cfg.OutDir); err != nil {
			return err
		}
	}
	if opts.writeZip != "" {
		if err := writeZip(w, feed, opts.writeZip); err != nil {
			return err
		}
	}
	if cfg.DBPath != "" {
		if err := exportDB(ctx, cfg.DBPath, feed, cfg.FeedSource(), logger); err != nil {
			return err
		}
	}
	if opts.crosscheck {
		if err := runCrosscheck(path, feed, logger); err != nil {
			return err
		}
	}
	if opts.rtFile != "" {
		if err := checkRealtimeFile(opts.rtFile, feed, logger); err != nil {
			return err
		}
	}
	return nil
}

func writeZip(w *gtfs.Writer, feed *gtfs.Feed, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.WriteZip(feed, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func exportDB(ctx context.Context, path string, feed *gtfs.Feed, source string, logger *slog.Logger) error {
	db, err := storage.Open(path, logger)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(db, logger, "export_db")

	if db.HasData(ctx) {
		logger.Info("replacing previous export", "db", path)
	}
	if err := gtfs.NewImporter(db, logger).Import(ctx, feed, source); err != nil {
		return err
	}
	counts, err := db.TableCounts(ctx)
	if err != nil {
		return err
	}
	logger.Info("sqlite export written", "db", path, "stops", counts["stops"], "trips", counts["trips"], "stop_times", counts["stop_times"])
	return nil
}

func runCrosscheck(path string, feed *gtfs.Feed, logger *slog.Logger) error {
	report, err := crosscheck.Compare(path, feed)
	if err != nil {
		return err
	}
	for _, c := range report.Mismatches() {
		logger.Warn("table count differs", "table", c.Table, "graph", c.Graph, "reference", c.Reference)
	}
	logger.Info("crosscheck complete",
		"tables", len(report.Counts),
		"mismatches", len(report.Mismatches()),
	)
	return nil
}

func checkRealtimeFile(path string, feed *gtfs.Feed, logger *slog.Logger) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read realtime file: %w", err)
	}
	report, err := realtime.Apply(body, feed, realtime.NewStore())
	if err != nil {
		return err
	}
	logger.Info("realtime file checked",
		"entities", report.Entities,
		"trip_updates", report.TripUpdates,
		"vehicles", report.Vehicles,
		"alerts", report.Alerts,
		"unknown_trips", report.UnknownTrips,
		"unknown_routes", report.UnknownRoutes,
		"unknown_stops", report.UnknownStops,
	)
	return nil
}

// serve loads the feed, keeps it fresh and runs the inspector until ctx is
// cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	strategy, err := gtfs.ParseStoreStrategy(cfg.StoreStrategy)
	if err != nil {
		return err
	}

	opts := gtfs.SchedulerOptions{Path: cfg.FeedPath, Strategy: strategy, ReloadHour: cfg.ReloadHour}
	if cfg.FeedPath == "" && cfg.FeedURL != "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			return fmt.Errorf("create download dir: %w", err)
		}
		opts.Downloader = gtfs.NewDownloader(cfg.FeedURL, cfg.DownloadDir, logger)
	}

	var db *storage.DB
	if cfg.DBPath != "" {
		db, err = storage.Open(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer logging.SafeCloseWithLogging(db, logger, "serve_db")
		opts.Importer = gtfs.NewImporter(db, logger)
	}

	var holder gtfs.Holder
	scheduler, err := gtfs.NewScheduler(&holder, gtfs.NewParser(cfg.Strict, logger), opts, logger)
	if err != nil {
		return err
	}

	// Load in the background; the server shows a loading page meanwhile.
	go func() {
		if err := scheduler.EnsureData(ctx); err != nil {
			logger.Error("initial feed load failed", "error", err)
		}
		scheduler.StartBackground(ctx)
	}()

	rtStore := realtime.NewStore()
	if cfg.RealtimeURL != "" {
		interval := time.Duration(cfg.RealtimeIntervalSec) * time.Second
		go realtime.NewFetcher(cfg.RealtimeURL, interval, &holder, rtStore, logger).Start(ctx)
	}

	return server.New(cfg, &holder, rtStore, db, logger).ListenAndServe(ctx)
}
