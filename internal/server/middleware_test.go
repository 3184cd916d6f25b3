package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"

	"transitfeed/internal/config"
	"transitfeed/internal/gtfs"
	"transitfeed/internal/realtime"
)

var feedFiles = fstest.MapFS{
	"agency.txt": {Data: []byte("agency_name,agency_url,agency_timezone\n" +
		"Metro Transit,https://metrotransit.org,America/Chicago\n")},
	"stops.txt": {Data: []byte("stop_id,stop_name,stop_lat,stop_lon\n" +
		"s1,Nicollet Mall,44.9778,-93.2650\n")},
	"routes.txt": {Data: []byte("route_id,route_short_name,route_long_name,route_type\n" +
		"r1,18,Nicollet Ave,3\n")},
	"calendar.txt": {Data: []byte("service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
		"wk,1,1,1,1,1,0,0,20240101,20241231\n")},
	"trips.txt":      {Data: []byte("route_id,service_id,trip_id\nr1,wk,t1\n")},
	"stop_times.txt": {Data: []byte("trip_id,arrival_time,departure_time,stop_id,stop_sequence\nt1,08:00:00,08:00:00,s1,1\n")},
}

func newTestServer(t *testing.T) (*Server, *gtfs.Holder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	var holder gtfs.Holder
	s := New(&config.Config{Port: 8080}, &holder, realtime.NewStore(), nil, logger)
	return s, &holder, &logs
}

func load(t *testing.T, holder *gtfs.Holder) {
	t.Helper()
	feed := gtfs.NewFeed(gtfs.HashStore)
	logger := slog.New(slog.DiscardHandler)
	if err := gtfs.NewParser(false, logger).Parse(context.Background(), feedFiles, feed); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	holder.Store(feed)
}

func get(h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWaitForData(t *testing.T) {
	s, holder, _ := newTestServer(t)
	h := s.Handler()

	rec := get(h, "/routes", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before load = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "5" {
		t.Error("Retry-After missing")
	}
	if !strings.Contains(rec.Body.String(), "feed is being loaded") {
		t.Error("loading page not rendered")
	}

	if rec := get(h, "/healthz", nil); rec.Code != http.StatusOK || rec.Body.String() != "loading\n" {
		t.Errorf("healthz before load = %d %q", rec.Code, rec.Body.String())
	}

	load(t, holder)
	rec = get(h, "/routes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after load = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nicollet Ave") {
		t.Error("route list not rendered")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, holder, _ := newTestServer(t)
	load(t, holder)
	rec := get(s.Handler(), "/", nil)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	s, holder, logs := newTestServer(t)
	load(t, holder)
	h := s.Handler()

	rec := get(h, "/api/summary", nil)
	id := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", id, err)
	}
	if !strings.Contains(logs.String(), "request_id="+id) || !strings.Contains(logs.String(), "status=200") {
		t.Errorf("request log missing id or status:\n%s", logs.String())
	}

	rec = get(h, "/stops/nope", http.Header{"X-Request-Id": {"abc-123"}})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want the caller's id", got)
	}
	if !strings.Contains(logs.String(), "request_id=abc-123") || !strings.Contains(logs.String(), "status=404") {
		t.Errorf("request log missing caller id or 404:\n%s", logs.String())
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.cfg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() error = %v, want nil after cancel", err)
	}
}

func TestCompress(t *testing.T) {
	body := strings.Repeat("<tr><td>Nicollet Mall</td></tr>\n", 200)
	h := compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))

	rec := get(h, "/routes", http.Header{"Accept-Encoding": {"gzip"}})
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading gzip body: %v", err)
	}
	if string(plain) != body {
		t.Error("decompressed body differs")
	}

	if rec := get(h, "/routes", nil); rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != body {
		t.Error("client without gzip support got an encoded body")
	}
}

func TestRateLimit(t *testing.T) {
	s, holder, _ := newTestServer(t)
	s.limiter = newClientLimiter(2)
	load(t, holder)
	h := s.Handler()

	for i := range 2 {
		if rec := get(h, "/api/summary", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
	rec := get(h, "/api/summary", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status over limit = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Error("Retry-After missing")
	}

	// Pages and other clients are not affected.
	if rec := get(h, "/routes", nil); rec.Code != http.StatusOK {
		t.Errorf("page status = %d, want 200", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", other.Code)
	}
}

func TestNewClientLimiter_Disabled(t *testing.T) {
	if newClientLimiter(0) != nil {
		t.Error("newClientLimiter(0) should disable limiting")
	}
}
