package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter applies per-client token buckets, keyed by client IP. State is
// in-memory; a multi-instance deployment limits per instance.
type RateLimiter struct {
	mu         sync.RWMutex
	limits     map[string]*RateLimitConfig
	defaultCfg *RateLimitConfig
	buckets    map[string]*tokenBucket
}

// tokenBucket tracks remaining tokens for one client key.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	lastRefill time.Time
}

// RateLimitConfig defines how many requests a window allows for a path.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

// NewRateLimiter creates a rate limiter with a default of 100 requests per
// minute per client IP.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		limits:  make(map[string]*RateLimitConfig),
		buckets: make(map[string]*tokenBucket),
		defaultCfg: &RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
			KeyFunc:  clientKey,
		},
	}
	go rl.cleanupExpiredBuckets()
	return rl
}

// AddLimit sets a per-path limit overriding the default.
func (rl *RateLimiter) AddLimit(path string, cfg *RateLimitConfig) {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientKey
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limits[path] = cfg
}

// Middleware returns the gin handler enforcing the limits.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := rl.getConfig(c.FullPath())
		key := c.FullPath() + "|" + cfg.KeyFunc(c)

		allowed, remaining, retryAfter := rl.take(key, cfg)

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}

// take consumes one token, refilling proportionally to elapsed time.
func (rl *RateLimiter) take(key string, cfg *RateLimitConfig) (allowed bool, remaining, retryAfter int) {
	bucket := rl.getOrCreateBucket(key, cfg)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)
	refill := int(elapsed * time.Duration(cfg.Requests) / cfg.Window)
	if refill > 0 {
		bucket.tokens = min(bucket.maxTokens, bucket.tokens+refill)
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true, bucket.tokens, 0
	}

	retryAfter = int(cfg.Window.Seconds() / float64(cfg.Requests))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}

func (rl *RateLimiter) getOrCreateBucket(key string, cfg *RateLimitConfig) *tokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.buckets[key]; ok {
		return bucket
	}
	bucket := &tokenBucket{
		tokens:     cfg.Requests,
		maxTokens:  cfg.Requests,
		lastRefill: time.Now(),
	}
	rl.buckets[key] = bucket
	return bucket
}

func (rl *RateLimiter) getConfig(path string) *RateLimitConfig {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if cfg, ok := rl.limits[path]; ok {
		return cfg
	}
	return rl.defaultCfg
}

// cleanupExpiredBuckets drops buckets idle for over ten minutes.
func (rl *RateLimiter) cleanupExpiredBuckets() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, bucket := range rl.buckets {
			bucket.mu.Lock()
			if now.Sub(bucket.lastRefill) > 10*time.Minute {
				delete(rl.buckets, key)
			}
			bucket.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
