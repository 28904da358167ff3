package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// pruneThreshold caps how many per-key buckets accumulate before buckets
// idle longer than pruneAfter are dropped.
const (
	pruneThreshold = 10000
	pruneAfter     = 10 * time.Minute
)

// tokenBucket is a standard token bucket: tokens refill continuously at
// refillRate and each request spends one.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// retryAfter estimates whole seconds until a token becomes available.
func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

// rateLimiterStore keeps one bucket per client key.
type rateLimiterStore struct {
	mu       sync.RWMutex
	buckets  map[string]*tokenBucket
	lastSeen map[string]time.Time
	config   RateLimitConfig
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		buckets:  make(map[string]*tokenBucket),
		lastSeen: make(map[string]time.Time),
		config:   cfg,
	}
}

func (s *rateLimiterStore) getBucket(key string) *tokenBucket {
	now := time.Now()

	s.mu.RLock()
	bucket, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		s.lastSeen[key] = now
		s.mu.Unlock()
		return bucket
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok := s.buckets[key]; ok {
		s.lastSeen[key] = now
		return bucket
	}
	if len(s.buckets) >= pruneThreshold {
		s.pruneLocked(now)
	}
	bucket = newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize)
	s.buckets[key] = bucket
	s.lastSeen[key] = now
	return bucket
}

func (s *rateLimiterStore) pruneLocked(now time.Time) {
	for key, seen := range s.lastSeen {
		if now.Sub(seen) > pruneAfter {
			delete(s.buckets, key)
			delete(s.lastSeen, key)
		}
	}
}

// RateLimit throttles requests per authenticated user, falling back to the
// client IP for anonymous traffic. Rejected requests get a Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, ok := c.Get("user_id").(string); ok && userID != "" {
				key = userID
			}

			bucket := store.getBucket(key)
			limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)
			if !bucket.allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(bucket.retryAfter()))
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return next(c)
		}
	}
}
