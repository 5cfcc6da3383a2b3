package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/neographql/internal/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func postFrom(h http.Handler, addr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.RemoteAddr = addr
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(3, clock.Now))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, postFrom(h, "10.0.0.1:5000").Code, "request %d", i)
	}

	rec := postFrom(h, "10.0.0.1:5000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("Retry-After"))
	assert.JSONEq(t,
		`{"errors":[{"message":"rate limit exceeded","extensions":{"code":"RATE_LIMITED"}}]}`,
		rec.Body.String())
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(60, clock.Now))

	for i := 0; i < 60; i++ {
		postFrom(h, "10.0.0.2:5000")
	}
	require.Equal(t, http.StatusTooManyRequests, postFrom(h, "10.0.0.2:5000").Code)

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, postFrom(h, "10.0.0.2:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(h, "10.0.0.2:5000").Code)
}

func TestRateLimiter_KeyedByHost(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(1, clock.Now))

	assert.Equal(t, http.StatusOK, postFrom(h, "10.0.0.3:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(h, "10.0.0.3:2000").Code, "same host, other port")
	assert.Equal(t, http.StatusOK, postFrom(h, "10.0.0.4:1000").Code, "other host")
}

func TestRateLimiter_EvictsRefilledBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newRateLimiter(2, clock.Now)

	rl.take("a")
	clock.Advance(30 * time.Second)
	rl.take("b")
	clock.Advance(30 * time.Second)
	rl.evict()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.clients, "a")
	assert.Contains(t, rl.clients, "b")
}

func TestRateLimiter_StopEndsSweeper(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: 10, CleanupInterval: time.Millisecond})

	done := make(chan struct{})
	go func() {
		rl.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
