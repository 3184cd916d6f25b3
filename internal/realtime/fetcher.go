package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/logging"
)

// Fetcher polls a GTFS-Realtime URL and checks each message against the
// currently published static feed.
type Fetcher struct {
	url      string
	interval time.Duration
	holder   *gtfs.Holder
	store    *Store
	client   *http.Client
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher polling url every interval.
func NewFetcher(url string, interval time.Duration, holder *gtfs.Holder, store *Store, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		url:      url,
		interval: interval,
		holder:   holder,
		store:    store,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Start polls until ctx is cancelled. Failed polls are logged and retried
// on the next tick.
func (f *Fetcher) Start(ctx context.Context) {
	f.poll(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.poll(ctx)
		case <-ctx.Done():
			f.logger.Info("realtime fetcher stopped")
			return
		}
	}
}

func (f *Fetcher) poll(ctx context.Context) {
	if err := f.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Warn("realtime poll failed", "url", f.url, "error", err)
	}
}

// Poll fetches and checks one message.
func (f *Fetcher) Poll(ctx context.Context) error {
	feed := f.holder.Load()
	if feed == nil {
		return errors.New("no static feed loaded")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch realtime: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, f.logger, "realtime_fetch")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	report, err := Apply(body, feed, f.store)
	if err != nil {
		return err
	}
	f.logger.Info("realtime feed checked",
		"entities", report.Entities,
		"alerts", report.Alerts,
		"unknown_trips", len(report.UnknownTrips),
		"unknown_routes", len(report.UnknownRoutes),
		"unknown_stops", len(report.UnknownStops),
	)
	return nil
}

// Apply decodes body, checks it against feed and publishes the result to
// store.
func Apply(body []byte, feed *gtfs.Feed, store *Store) (Report, error) {
	msg, err := Decode(body)
	if err != nil {
		return Report{}, err
	}
	report := Check(msg, feed)
	store.Set(AlertsOf(msg), report)
	return report, nil
}
