package echomw

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client ip.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit // requests per second
	burst    int        // how many requests are allowed instantly
	idle     time.Duration
	now      func() time.Time
	lastScan time.Time
}

func NewRateLimiter(requestsPerSecond, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// NewRateLimiterFromConfig uses Cfg.
func NewRateLimiterFromConfig() *RateLimiter {
	return NewRateLimiter(Cfg.MiddlewareRateLimit, Cfg.MiddlewareBurst, time.Duration(Cfg.LimiterIdleSeconds)*time.Second)
}

// getLimiter returns the rate limiter for the given IP address.
func (limiter *RateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	limiter.forgetIdle(now)

	existing, exists := limiter.clients[ip]
	if !exists {
		existing = &client{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.clients[ip] = existing
	}
	existing.lastSeen = now
	return existing.limiter
}

// forgetIdle drops clients not seen for a while. At most one scan per idle period.
func (limiter *RateLimiter) forgetIdle(now time.Time) {
	if limiter.idle <= 0 || now.Sub(limiter.lastScan) < limiter.idle {
		return
	}
	limiter.lastScan = now
	for ip, existing := range limiter.clients {
		if now.Sub(existing.lastSeen) >= limiter.idle {
			delete(limiter.clients, ip)
		}
	}
}

// Middleware rejects requests over the client's rate with 429.
func (limiter *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !limiter.getLimiter(ip).Allow() {
			LogRouteAccess(c, tl.Info, "Rate limited", palette.Yellow)
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		}
		return next(c)
	}
}
