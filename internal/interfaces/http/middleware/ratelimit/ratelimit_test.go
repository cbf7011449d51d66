package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestLimiter(t *testing.T, r rate.Limit, b int, ttl time.Duration) *RateLimiter {
	rl := NewRateLimiter(r, b, ttl, nil, zap.NewNop())
	t.Cleanup(rl.Close)
	return rl
}

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name  string
		rate  rate.Limit
		burst int
		ttl   time.Duration
	}{
		{name: "standard configuration", rate: 100, burst: 200, ttl: 3 * time.Minute},
		{name: "strict configuration", rate: 1, burst: 1, ttl: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := newTestLimiter(t, tt.rate, tt.burst, tt.ttl)
			assert.Equal(t, tt.rate, rl.rate)
			assert.Equal(t, tt.burst, rl.burst)
			assert.Equal(t, tt.ttl, rl.ttl)
			assert.NotNil(t, rl.visitors)
		})
	}
}

func TestGetVisitor(t *testing.T) {
	rl := newTestLimiter(t, 100, 200, 3*time.Minute)

	limiter1 := rl.getVisitor("192.168.1.1")
	require.NotNil(t, limiter1)
	assert.Same(t, limiter1, rl.getVisitor("192.168.1.1"))
	assert.NotSame(t, limiter1, rl.getVisitor("192.168.1.2"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := newTestLimiter(t, 1, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "temporarily_unavailable", body["error"])

	other := httptest.NewRequest(http.MethodPost, "/token", nil)
	other.RemoteAddr = "10.0.0.1"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterMiddlewareEmptyAddress(t *testing.T) {
	rl := newTestLimiter(t, 1, 1, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ""
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCleanupVisitors(t *testing.T) {
	rl := newTestLimiter(t, 1, 1, 200*time.Millisecond)

	rl.getVisitor("192.168.1.1")
	rl.cleanupVisitors(time.Now())
	assert.Len(t, rl.visitors, 1)

	rl.cleanupVisitors(time.Now().Add(time.Second))
	assert.Empty(t, rl.visitors)
}

func TestConcurrentAccess(t *testing.T) {
	rl := newTestLimiter(t, 100, 200, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.getVisitor("192.168.1.1")
		}()
	}
	wg.Wait()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.visitors, 1)
}
