package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/athanhub/athan-notify/internal/api/respond"
)

// --------------------------------------------------------------------------
// Request timing middleware
// --------------------------------------------------------------------------

// timingWriter sets the X-Process-Time header just before the response
// is committed; once the status line is written headers cannot change.
type timingWriter struct {
	http.ResponseWriter
	start time.Time
	wrote bool
}

func (w *timingWriter) WriteHeader(status int) {
	if !w.wrote {
		w.wrote = true
		elapsed := float64(time.Since(w.start).Microseconds()) / 1000.0
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", elapsed))
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// TimingMiddleware adds an X-Process-Time header to every response.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timingWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}

// --------------------------------------------------------------------------
// Rate limiting middleware (per-IP token bucket)
// --------------------------------------------------------------------------

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// visitors maps client IPs to token buckets. Idle entries are swept out
// so the map stays bounded under churny traffic.
type visitors struct {
	mu    sync.Mutex
	seen  map[string]*visitor
	limit rate.Limit
	burst int
	ttl   time.Duration
	sweep time.Time
}

func newVisitors(requestsPerWindow int, window time.Duration) *visitors {
	burst := requestsPerWindow / 2
	if burst < 1 {
		burst = 1
	}
	return &visitors{
		seen:  make(map[string]*visitor),
		limit: rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst: burst,
		ttl:   3 * window,
	}
}

func (v *visitors) allow(ip string, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.After(v.sweep) {
		v.evict(now)
		v.sweep = now.Add(v.ttl)
	}

	vis, ok := v.seen[ip]
	if !ok {
		vis = &visitor{bucket: rate.NewLimiter(v.limit, v.burst)}
		v.seen[ip] = vis
	}
	vis.lastSeen = now
	return vis.bucket.Allow()
}

// evict drops entries idle longer than ttl. Caller holds the lock.
func (v *visitors) evict(now time.Time) {
	for ip, vis := range v.seen {
		if now.Sub(vis.lastSeen) > v.ttl {
			delete(v.seen, ip)
		}
	}
}

// RateLimitMiddleware returns middleware that rate-limits by client IP.
func RateLimitMiddleware(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	v := newVisitors(requestsPerWindow, window)
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", retryAfter)
				respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
