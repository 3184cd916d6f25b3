package gtfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// SchedulerOptions configures where a Scheduler loads feeds from. Exactly
// one of Path and Downloader is used; Downloader wins when both are set.
type SchedulerOptions struct {
	Path       string
	Downloader *Downloader
	Strategy   StoreStrategy
	// ReloadHour is the local hour, in the feed's first agency timezone,
	// at which the daily reload runs.
	ReloadHour int
	// Importer, when set, receives every newly loaded feed.
	Importer *Importer
}

// Scheduler loads the feed into a Holder and reloads it once a day.
type Scheduler struct {
	holder *Holder
	parser *Parser
	opts   SchedulerOptions
	logger *slog.Logger

	mu            sync.Mutex
	lastCheckDate string // YYYY-MM-DD of the last check, in feed time
	validators    Validators
	modTime       time.Time
}

// NewScheduler creates a Scheduler publishing into holder.
func NewScheduler(holder *Holder, parser *Parser, opts SchedulerOptions, logger *slog.Logger) (*Scheduler, error) {
	if opts.Path == "" && opts.Downloader == nil {
		return nil, errors.New("scheduler needs a feed path or URL")
	}
	if opts.ReloadHour < 0 || opts.ReloadHour > 23 {
		return nil, fmt.Errorf("reload hour %d out of range", opts.ReloadHour)
	}
	return &Scheduler{holder: holder, parser: parser, opts: opts, logger: logger}, nil
}

// EnsureData loads the feed unless one is already published.
func (s *Scheduler) EnsureData(ctx context.Context) error {
	if s.holder.Load() != nil {
		return nil
	}
	s.logger.Info("no feed loaded, performing initial load")
	return s.update(ctx)
}

// CheckAndUpdate reloads the feed if its source has changed. It runs at
// most once per feed-local calendar day.
func (s *Scheduler) CheckAndUpdate(ctx context.Context) error {
	s.mu.Lock()
	today := time.Now().In(s.location()).Format("2006-01-02")
	if s.lastCheckDate == today {
		s.mu.Unlock()
		return nil
	}
	s.lastCheckDate = today
	s.mu.Unlock()

	changed, err := s.changed(ctx)
	if err != nil {
		return err
	}
	if !changed {
		s.logger.Info("feed unchanged, keeping current graph")
		return nil
	}
	return s.update(ctx)
}

// StartBackground runs the daily reload until ctx is cancelled.
func (s *Scheduler) StartBackground(ctx context.Context) {
	s.logger.Info("feed reload scheduler started", "hour", s.opts.ReloadHour)

	for {
		next := nextReload(time.Now(), s.opts.ReloadHour, s.location())
		s.logger.Info("next feed check scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if err := s.CheckAndUpdate(ctx); err != nil {
				s.logger.Error("background feed reload failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("feed reload scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) changed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	v, mod := s.validators, s.modTime
	s.mu.Unlock()

	if s.opts.Downloader != nil {
		return s.opts.Downloader.Changed(ctx, v)
	}
	info, err := os.Stat(s.opts.Path)
	if err != nil {
		return false, fmt.Errorf("stat feed: %w", err)
	}
	return !info.ModTime().Equal(mod), nil
}

// update parses the feed from its source and publishes it. The current
// feed stays published if anything fails.
func (s *Scheduler) update(ctx context.Context) error {
	path := s.opts.Path
	var v Validators
	if s.opts.Downloader != nil {
		var err error
		path, v, err = s.opts.Downloader.Download(ctx)
		if err != nil {
			return err
		}
		defer os.Remove(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat feed: %w", err)
	}

	feed := NewFeed(s.opts.Strategy)
	if err := s.parser.ParsePath(ctx, path, feed); err != nil {
		return err
	}
	if s.opts.Importer != nil {
		if err := s.opts.Importer.Import(ctx, feed, s.source()); err != nil {
			return err
		}
	}

	s.holder.Store(feed)
	s.mu.Lock()
	s.validators, s.modTime = v, info.ModTime()
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) source() string {
	if s.opts.Downloader != nil {
		return s.opts.Downloader.url
	}
	return s.opts.Path
}

// location is the timezone of the published feed's first agency, or UTC.
func (s *Scheduler) location() *time.Location {
	if f := s.holder.Load(); f != nil {
		if a := f.FirstAgency(); a != nil {
			return a.Location()
		}
	}
	return time.UTC
}

// nextReload returns the first instant after now at hour:00 in loc.
func nextReload(now time.Time, hour int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
