package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	httperrors "github.com/manorfm/cpa-auth/internal/interfaces/http/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const cleanupInterval = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	visitors map[string]*clientLimiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	metrics  *instrumentation.Metrics
	logger   *zap.Logger
	done     chan struct{}
	stop     sync.Once
}

func NewRateLimiter(r rate.Limit, b int, ttl time.Duration, metrics *instrumentation.Metrics, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*clientLimiter),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop(cleanupInterval)
	return rl
}

// Close stops the background cleanup
func (rl *RateLimiter) Close() {
	rl.stop.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, exists := rl.visitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.visitors[ip] = &clientLimiter{limiter, time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.cleanupVisitors(now)
		}
	}
}

func (rl *RateLimiter) cleanupVisitors(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware rejects requests over the limit with a 429 temporarily_unavailable
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// chi's RealIP leaves a bare address in RemoteAddr
			ip = r.RemoteAddr
		}
		if ip == "" {
			httperrors.RespondWithError(w, rl.logger, apperrors.ServerError("Unable to parse IP"))
			return
		}

		if !rl.getVisitor(ip).Allow() {
			rl.metrics.RecordRateLimitExceeded(r.Context())
			rl.logger.Debug("Rate limit exceeded", zap.String("ip", ip))
			httperrors.RespondWithError(w, rl.logger, apperrors.TemporarilyUnavailable("Rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
