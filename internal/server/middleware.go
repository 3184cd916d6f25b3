package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"transitfeed/internal/gtfs"
	"transitfeed/internal/logging"
	"transitfeed/internal/templates"
)

func withMiddleware(h http.Handler, logger *slog.Logger, holder *gtfs.Holder, limiter *clientLimiter) http.Handler {
	return securityHeaders(compress(requestLogger(rateLimit(waitForData(h, holder), limiter), logger)))
}

// compress gzips responses for clients that accept it. Bodies below
// gzhttp's minimum size are sent as is.
func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// maxClients bounds the limiter table; idle limiters are swept when it
// fills up.
const maxClients = 4096

// clientLimiter holds one token bucket per client address.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

// newClientLimiter allows perSecond requests per client with an equal
// burst. It returns nil, meaning no limit, when perSecond is not positive.
func newClientLimiter(perSecond int) *clientLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   perSecond,
		clients: make(map[string]*rate.Limiter),
	}
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxClients {
			for k, v := range l.clients {
				if v.Tokens() >= float64(l.burst) {
					delete(l.clients, k)
				}
			}
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = lim
	}
	return lim.Allow()
}

// rateLimit throttles /api/ requests per client address. Pages are not
// limited.
func rateLimit(next http.Handler, limiter *clientLimiter) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !limiter.allow(client) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// waitForData shows a loading page until the first feed is published.
// The health check passes through.
func waitForData(next http.Handler, holder *gtfs.Holder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if holder.Load() != nil || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := templates.LoadingPage().Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("rendering loading page", "error", err)
		}
	})
}

// requestLogger tags each request with an id, stores a request-scoped
// logger in the context and logs the outcome.
func requestLogger(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		reqLogger := logger.With("request_id", id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r.WithContext(logging.WithLogger(r.Context(), reqLogger)))
		reqLogger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
