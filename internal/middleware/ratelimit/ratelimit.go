// Package ratelimit throttles clients by IP with a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window  = time.Minute
	idleTTL = 10 * time.Minute
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration

	// Methods limits which HTTP methods are counted. Empty means all.
	Methods []string
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Decision is the outcome of one request against a client's window.
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is how long until the window starts over.
	Reset time.Duration
}

type clientWindow struct {
	start    time.Time
	seen     time.Time
	requests int
}

// Limiter counts requests per client. A window opens on a client's first
// request and does not slide, so steady traffic cannot keep it shut.
type Limiter struct {
	limit   int
	methods []string
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	hits     atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter and its idle-client sweeper. Call Stop to
// end the sweeper.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	rl := &Limiter{
		limit:   config.RequestsPerMinute,
		methods: config.Methods,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
		stop:    make(chan struct{}),
	}
	go rl.sweep(config.CleanupInterval)
	return rl
}

// Take counts one request from clientIP and decides on it.
func (rl *Limiter) Take(clientIP string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cw, ok := rl.clients[clientIP]
	if !ok || now.Sub(cw.start) >= window {
		cw = &clientWindow{start: now}
		rl.clients[clientIP] = cw
	}
	cw.requests++
	cw.seen = now

	d := Decision{
		Allowed:   cw.requests <= rl.limit,
		Remaining: max(rl.limit-cw.requests, 0),
		Reset:     max(window-now.Sub(cw.start), 0),
	}
	if !d.Allowed {
		rl.hits.Add(1)
	}
	return d
}

// Allow reports whether a request from clientIP may proceed.
func (rl *Limiter) Allow(clientIP string) bool {
	return rl.Take(clientIP).Allowed
}

// RetryAfter is how long clientIP has to wait for a new window.
func (rl *Limiter) RetryAfter(clientIP string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw, ok := rl.clients[clientIP]
	if !ok {
		return 0
	}
	return max(window-rl.now().Sub(cw.start), 0)
}

func (rl *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than idleTTL.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	for ip, cw := range rl.clients {
		if cw.seen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// ActiveClients is the number of clients with a tracked window.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Metrics for monitoring rate limit performance.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

func (rl *Limiter) applies(method string) bool {
	return len(rl.methods) == 0 || slices.Contains(rl.methods, method)
}

// Middleware limits the configured methods per client. Counted responses
// carry X-RateLimit-Limit and X-RateLimit-Remaining, and a refusal adds
// Retry-After before onLimit (or a plain 429) writes the body.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.applies(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			d := rl.Take(extractIP(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Retry-After", strconv.Itoa(int(d.Reset.Seconds())+1))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
