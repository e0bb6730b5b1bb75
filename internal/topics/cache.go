package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/config"
)

// SummaryCache is a read-through cache of research summaries keyed by
// normalized query. It backs the research agent's search_web tool. When
// Redis is unavailable the cache degrades to an in-process map.
type SummaryCache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
	log     *logrus.Logger

	mu    sync.RWMutex
	local map[string]ResearchSummary
}

// ResearchSummary is what a search_web call returns to the model.
type ResearchSummary struct {
	Query     string   `json:"query"`
	Topic     string   `json:"topic"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Pros      []string `json:"pros"`
	Cons      []string `json:"cons"`
	Sources   []string `json:"sources"`
}

// NewSummaryCache connects to Redis; a failed ping disables the remote tier
// rather than failing startup.
func NewSummaryCache(cfg config.RedisConfig, log *logrus.Logger) *SummaryCache {
	if log == nil {
		log = logrus.New()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	c := &SummaryCache{
		client: client,
		ttl:    cfg.TTL,
		log:    log,
		local:  make(map[string]ResearchSummary),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, summary cache running in-process only")
		c.enabled = false
	} else {
		c.enabled = true
	}
	return c
}

// Lookup resolves a query to a research summary, reading through the cache
// into the topic catalog.
func (c *SummaryCache) Lookup(ctx context.Context, query string) (ResearchSummary, bool) {
	key := cacheKey(query)

	if s, ok := c.get(ctx, key); ok {
		return s, true
	}

	topic, ok := BestMatch(query)
	if !ok {
		return ResearchSummary{}, false
	}

	summary := ResearchSummary{
		Query:     query,
		Topic:     topic.Title,
		Summary:   topic.Description,
		KeyPoints: topic.KeyPoints,
		Pros:      topic.Pros,
		Cons:      topic.Cons,
		Sources:   topic.Sources,
	}
	c.set(ctx, key, summary)
	return summary, true
}

func (c *SummaryCache) get(ctx context.Context, key string) (ResearchSummary, bool) {
	if c.enabled {
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var s ResearchSummary
			if jsonErr := json.Unmarshal([]byte(raw), &s); jsonErr == nil {
				return s, true
			}
		} else if err != redis.Nil {
			c.log.WithError(err).Debug("Redis read failed, falling back to local cache")
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.local[key]
	return s, ok
}

func (c *SummaryCache) set(ctx context.Context, key string, s ResearchSummary) {
	if c.enabled {
		if raw, err := json.Marshal(s); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.log.WithError(err).Debug("Redis write failed")
			}
		}
	}

	c.mu.Lock()
	c.local[key] = s
	c.mu.Unlock()
}

func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("research:%s", normalized)
}
