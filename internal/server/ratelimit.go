package server

import (
	"net/http"
	"sync"
	"time"

	"auction-house/internal/metrics"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxVisitors bounds the limiter table; past it, idle entries are swept
const maxVisitors = 10000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

// NewRateLimiter allows rps requests per second with bursts of burst per client.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow reports whether key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	if rl.rate <= 0 {
		return true
	}

	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		if len(rl.visitors) >= maxVisitors {
			rl.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops visitors idle for longer than rl.idle. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, k)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(c *gin.Context) {
	ip := c.ClientIP()
	if rl.Allow(ip) {
		c.Next()
		return
	}

	metrics.RateLimited.WithLabelValues(route(c)).Inc()
	utils.Warn("rate limit exceeded", map[string]any{"client_ip": ip, "path": c.Request.URL.Path})
	c.Header("Retry-After", "1")
	abortWithStatus(c, http.StatusTooManyRequests, "too many requests")
}
