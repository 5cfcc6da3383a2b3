package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/heartmarshall/neographql/internal/config"
)

// RateLimiter throttles GraphQL requests per client IP with a token bucket
// that holds PerMinute tokens and refills continuously.
type RateLimiter struct {
	capacity float64
	perSec   float64
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*tokens

	stop chan struct{}
	done chan struct{}
}

type tokens struct {
	left float64
	seen time.Time
}

// NewRateLimiter starts a limiter and its sweeper goroutine. Call Stop on
// shutdown.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(cfg.PerMinute, time.Now)
	go rl.sweep(cfg.CleanupInterval)
	return rl
}

func newRateLimiter(perMinute int, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		capacity: float64(perMinute),
		perSec:   float64(perMinute) / 60,
		now:      now,
		clients:  make(map[string]*tokens),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Stop terminates the sweeper and waits for it to exit.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
	<-rl.done
}

// Middleware rejects requests once the caller's bucket is empty, with a
// Retry-After header telling it when the next token is due.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := rl.take(clientIP(r)); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take consumes one token for key. It returns zero when the request may
// proceed, otherwise the time until a token becomes available.
func (rl *RateLimiter) take(key string) time.Duration {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok {
		b = &tokens{left: rl.capacity, seen: now}
		rl.clients[key] = b
	}
	b.left = math.Min(rl.capacity, b.left+now.Sub(b.seen).Seconds()*rl.perSec)
	b.seen = now

	if b.left >= 1 {
		b.left--
		return 0
	}
	return time.Duration((1 - b.left) / rl.perSec * float64(time.Second))
}

// evict drops buckets that have been idle long enough to be full again.
func (rl *RateLimiter) evict() {
	full := time.Duration(rl.capacity / rl.perSec * float64(time.Second))
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.clients {
		if now.Sub(b.seen) >= full {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	defer close(rl.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
