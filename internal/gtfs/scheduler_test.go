package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// feedServer serves an archive with an ETag and honors If-None-Match.
func feedServer(t *testing.T, body []byte, etag *atomic.Value, gets *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := etag.Load().(string)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", tag)
		if r.Method == http.MethodHead {
			return
		}
		gets.Add(1)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()
	body := zipBytes(t, minimalFeed())
	var etag atomic.Value
	etag.Store(`"v1"`)
	var gets atomic.Int32
	srv := feedServer(t, body, &etag, &gets)

	dir := t.TempDir()
	d := NewDownloader(srv.URL, dir, testLogger())

	path, v, err := d.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, v.ETag)
	assert.Equal(t, dir, filepath.Dir(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	changed, err := d.Changed(ctx, v)
	require.NoError(t, err)
	assert.False(t, changed)

	etag.Store(`"v2"`)
	changed, err = d.Changed(ctx, v)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestDownloader_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := NewDownloader(srv.URL, t.TempDir(), testLogger()).Download(context.Background())
	assert.ErrorContains(t, err, "unexpected status: 404")
}

func TestScheduler_LocalPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "feed.zip")
	writeZip(t, path, "", minimalFeed())

	var holder Holder
	s, err := NewScheduler(&holder, NewParser(false, testLogger()), SchedulerOptions{Path: path, Strategy: SortedStore, ReloadHour: 3}, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.EnsureData(ctx))
	first := holder.Load()
	require.NotNil(t, first)
	assert.Equal(t, "America/Chicago", s.location().String())

	require.NoError(t, s.EnsureData(ctx))
	assert.Same(t, first, holder.Load())

	require.NoError(t, s.CheckAndUpdate(ctx))
	assert.Same(t, first, holder.Load(), "unchanged file must not reload")

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	require.NoError(t, s.CheckAndUpdate(ctx))
	assert.Same(t, first, holder.Load(), "second check on the same day is skipped")

	s.lastCheckDate = ""
	require.NoError(t, s.CheckAndUpdate(ctx))
	assert.NotSame(t, first, holder.Load())
}

func TestScheduler_KeepsFeedOnFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "feed.zip")
	writeZip(t, path, "", minimalFeed())

	var holder Holder
	s, err := NewScheduler(&holder, NewParser(false, testLogger()), SchedulerOptions{Path: path}, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.EnsureData(ctx))
	first := holder.Load()

	broken := minimalFeed()
	delete(broken, "trips.txt")
	writeZip(t, path, "", broken)
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	err = s.CheckAndUpdate(ctx)
	assert.ErrorIs(t, err, ErrMissingTable)
	assert.Same(t, first, holder.Load())
}

func TestScheduler_Download(t *testing.T) {
	ctx := context.Background()
	var etag atomic.Value
	etag.Store(`"v1"`)
	var gets atomic.Int32
	srv := feedServer(t, zipBytes(t, minimalFeed()), &etag, &gets)

	dir := t.TempDir()
	var holder Holder
	s, err := NewScheduler(&holder, NewParser(false, testLogger()),
		SchedulerOptions{Downloader: NewDownloader(srv.URL, dir, testLogger())}, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.EnsureData(ctx))
	require.NotNil(t, holder.Load())
	assert.Equal(t, int32(1), gets.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "downloaded archive is removed after parsing")

	require.NoError(t, s.CheckAndUpdate(ctx))
	assert.Equal(t, int32(1), gets.Load(), "not-modified feed is not downloaded again")

	etag.Store(`"v2"`)
	s.lastCheckDate = ""
	require.NoError(t, s.CheckAndUpdate(ctx))
	assert.Equal(t, int32(2), gets.Load())
}

func TestNewScheduler_Validation(t *testing.T) {
	p := NewParser(false, testLogger())
	_, err := NewScheduler(&Holder{}, p, SchedulerOptions{}, testLogger())
	assert.Error(t, err)
	_, err = NewScheduler(&Holder{}, p, SchedulerOptions{Path: "x", ReloadHour: 24}, testLogger())
	assert.Error(t, err)
}

func TestNextReload(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		hour int
		loc  *time.Location
		want time.Time
	}{
		{"later today", time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), 3, time.UTC, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)},
		{"exactly now", time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), 3, time.UTC, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2024, 12, 31, 22, 0, 0, 0, time.UTC), 3, time.UTC, time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)},
		{"feed timezone", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), 3, chicago, time.Date(2024, 5, 2, 3, 0, 0, 0, chicago)},
		{"across DST change", time.Date(2024, 3, 9, 12, 0, 0, 0, chicago), 3, chicago, time.Date(2024, 3, 10, 3, 0, 0, 0, chicago)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextReload(tt.now, tt.hour, tt.loc); !got.Equal(tt.want) {
				t.Errorf("nextReload() = %v, want %v", got, tt.want)
			}
		})
	}
}
