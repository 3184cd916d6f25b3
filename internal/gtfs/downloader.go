package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"transitfeed/internal/logging"
)

// Downloader fetches a GTFS archive over HTTP, using conditional requests
// to skip unchanged feeds.
type Downloader struct {
	client *http.Client
	url    string
	dir    string
	logger *slog.Logger
}

// NewDownloader creates a Downloader that stores archives from url in dir.
func NewDownloader(url, dir string, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 10 * time.Minute},
		url:    url,
		dir:    dir,
		logger: logger,
	}
}

// Validators are the HTTP cache validators of a downloaded archive.
type Validators struct {
	LastModified string
	ETag         string
}

func validatorsOf(h http.Header) Validators {
	return Validators{LastModified: h.Get("Last-Modified"), ETag: h.Get("ETag")}
}

// Changed sends a conditional HEAD request and reports whether the remote
// archive differs from the one described by v. A server that ignores the
// validators is treated as changed.
func (d *Downloader) Changed(ctx context.Context, v Validators) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("HEAD request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, d.logger, "feed_head")

	if resp.StatusCode == http.StatusNotModified {
		d.logger.Info("feed not modified", "url", d.url)
		return false, nil
	}
	if v.ETag != "" && resp.Header.Get("ETag") == v.ETag {
		return false, nil
	}
	return true, nil
}

// Download fetches the archive into a new temp file in the download
// directory. The caller removes the file when done with it.
func (d *Downloader) Download(ctx context.Context) (string, Validators, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", Validators{}, fmt.Errorf("create dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return "", Validators{}, fmt.Errorf("create request: %w", err)
	}

	d.logger.Info("downloading feed", "url", d.url)
	resp, err := d.client.Do(req)
	if err != nil {
		return "", Validators{}, fmt.Errorf("GET request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, d.logger, "feed_download")

	if resp.StatusCode != http.StatusOK {
		return "", Validators{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, "gtfs-*.zip")
	if err != nil {
		return "", Validators{}, fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", Validators{}, fmt.Errorf("write file: %w", err)
	}

	d.logger.Info("feed downloaded",
		"path", filepath.Base(tmp.Name()),
		"size_mb", fmt.Sprintf("%.1f", float64(written)/(1024*1024)),
	)
	return tmp.Name(), validatorsOf(resp.Header), nil
}
