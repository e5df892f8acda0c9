// ratelimit.go provides Gin middleware that enforces per-client rate limits,
// returning 429 responses when the configured requests-per-minute threshold is
// exceeded. Limits are kept in process memory or, when several replicas run,
// in Redis.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/telemetry"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name separates the buckets of different limiters sharing a backend
	Name string
	// RequestsPerMinute is the maximum number of requests allowed per minute
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed
	BurstSize int
	// CleanupInterval is how often to clean up expired entries
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:              "api",
		RequestsPerMinute: 200,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig returns stricter limits for login, registration and
// invitation endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:              "auth",
		RequestsPerMinute: 10, // 10 login attempts per minute
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:              "upload",
		RequestsPerMinute: 30,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a rate limit backend.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
	Limit() int
	Backend() string
	Stop()
}

// rateLimitEntry tracks request counts for a single client
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter implements an in-memory token bucket rate limiter
type RateLimiter struct {
	config   RateLimitConfig
	entries  map[string]*rateLimitEntry
	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go rl.cleanup()

	return rl
}

// cleanup periodically removes expired entries
func (rl *RateLimiter) cleanup() {
	interval := rl.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				// Remove entries that haven't been accessed in 10 minutes
				if now.Sub(entry.lastUpdate) > 10*time.Minute {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Limit returns the configured requests per minute
func (rl *RateLimiter) Limit() int { return rl.config.RequestsPerMinute }

// Backend implements Limiter
func (rl *RateLimiter) Backend() string { return "memory" }

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists {
		// New client, give them full burst
		rl.entries[key] = &rateLimitEntry{
			tokens:     float64(rl.config.BurstSize) - 1,
			lastUpdate: now,
		}
		return true
	}

	entry.tokens = rl.refill(entry, now)
	entry.lastUpdate = now

	if entry.tokens >= 1 {
		entry.tokens--
		return true
	}

	return false
}

func (rl *RateLimiter) refill(entry *rateLimitEntry, now time.Time) float64 {
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	added := now.Sub(entry.lastUpdate).Seconds() * tokensPerSecond
	return min(float64(rl.config.BurstSize), entry.tokens+added)
}

// RemainingTokens returns how many tokens are left for a key
func (rl *RateLimiter) RemainingTokens(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return rl.config.BurstSize
	}
	return int(rl.refill(entry, rl.now()))
}

// Take implements Limiter
func (rl *RateLimiter) Take(_ context.Context, key string) (Decision, error) {
	allowed := rl.Allow(key)
	d := Decision{Allowed: allowed, Remaining: rl.RemainingTokens(key)}
	if !allowed {
		d.RetryAfter = time.Minute
	}
	return d, nil
}

// RedisRateLimiter shares limits across replicas using the GCRA limiter of
// go-redis/redis_rate.
type RedisRateLimiter struct {
	config  RateLimitConfig
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter creates a limiter storing its state in rdb
func NewRedisRateLimiter(rdb redis.UniversalClient, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config, limiter: redis_rate.NewLimiter(rdb)}
}

// Limit returns the configured requests per minute
func (rl *RedisRateLimiter) Limit() int { return rl.config.RequestsPerMinute }

// Backend implements Limiter
func (rl *RedisRateLimiter) Backend() string { return "redis" }

// Stop implements Limiter. The Redis client is closed by its owner.
func (rl *RedisRateLimiter) Stop() {}

// Take implements Limiter
func (rl *RedisRateLimiter) Take(ctx context.Context, key string) (Decision, error) {
	limit := redis_rate.Limit{
		Rate:   rl.config.RequestsPerMinute,
		Burst:  rl.config.BurstSize,
		Period: time.Minute,
	}
	res, err := rl.limiter.Allow(ctx, "worknest:"+rl.config.Name+":"+key, limit)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

// NewLimiter returns a Redis limiter when rdb is non-nil and an in-memory one otherwise.
func NewLimiter(rdb redis.UniversalClient, config RateLimitConfig) Limiter {
	if rdb != nil {
		return NewRedisRateLimiter(rdb, config)
	}
	return NewRateLimiter(config)
}

// RateLimitMiddleware creates a Gin middleware that rate limits requests.
// If the backend fails the request is let through.
func RateLimitMiddleware(limiter Limiter, out response.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getRateLimitKey(c)

		d, err := limiter.Take(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "backend", limiter.Backend(), "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			telemetry.RateLimitedTotal.WithLabelValues(limiter.Backend()).Inc()
			retry := int(d.RetryAfter.Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			out.Error(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}

		c.Next()
	}
}

// getRateLimitKey determines the key to use for rate limiting
// Priority: user_id > IP address
func getRateLimitKey(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return "user:" + id
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
