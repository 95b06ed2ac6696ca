package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// Requests is the maximum number of requests allowed within the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
	// KeyFunc returns the caller identity to bucket by (defaults to ClientIdentity)
	KeyFunc func(c echo.Context) string
	// Message is the error message returned when rate limit is exceeded
	Message string
}

// rateLimitEntry tracks request count and window expiration
type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a process-local fixed-window limiter. Buckets are keyed by
// caller identity composed with the window index; entries reset lazily and a
// background sweeper evicts stale buckets.
type RateLimiter struct {
	config RateLimitConfig
	store  map[string]*rateLimitEntry
	mu     sync.Mutex
}

// ClientIdentity derives the rate-limit bucket key from proxy headers,
// falling back to a shared "unknown" bucket when no caller IP is available
func ClientIdentity(c echo.Context) string {
	if ip := c.Request().Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Request().Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIdentity
	}
	if config.Message == "" {
		config.Message = "Rate limit exceeded"
	}

	rl := &RateLimiter{
		config: config,
		store:  make(map[string]*rateLimitEntry),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// NewWebhookRateLimiter creates the limiter used in front of the webhook
// entry points: 100 requests per 15 minutes per caller identity
func NewWebhookRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Requests: 100,
		Window:   15 * time.Minute,
	})
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter, resetAt := rl.Allow(rl.config.KeyFunc(c))
			if allowed {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("Retry-After", strconv.Itoa(retryAfter))
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Requests))
			header.Set("X-RateLimit-Remaining", "0")
			header.Set("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"error":      rl.config.Message,
				"retryAfter": retryAfter,
			})
		}
	}
}

// Allow performs the atomic increment-and-check for one request from the
// given identity. Returns the retry-after hint (seconds, at least 1) and
// window reset time when the request is rejected.
func (rl *RateLimiter) Allow(identity string) (allowed bool, retryAfter int, resetAt time.Time) {
	now := time.Now()
	windowKey := identity + ":" + strconv.FormatInt(now.UnixNano()/int64(rl.config.Window), 10)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.store[windowKey]
	if !exists {
		entry = &rateLimitEntry{resetAt: now.Add(rl.config.Window)}
		rl.store[windowKey] = entry
	} else if now.After(entry.resetAt) {
		// Lazy reset of a reused bucket
		entry.count = 0
		entry.resetAt = now.Add(rl.config.Window)
	}

	entry.count++
	if entry.count > rl.config.Requests {
		seconds := int(math.Ceil(entry.resetAt.Sub(now).Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		return false, seconds, entry.resetAt
	}
	return true, 0, time.Time{}
}

// cleanup removes expired entries every minute
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.store {
			if now.After(entry.resetAt) {
				delete(rl.store, key)
			}
		}
		rl.mu.Unlock()
	}
}
