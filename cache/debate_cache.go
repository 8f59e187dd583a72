// Package cache provides an optional Redis read-through cache for debate
// records. It is never authoritative: the engine and the sweep always read
// the relational store, and a cold or missing cache only costs a query.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

const defaultTTL = 5 * time.Minute

// DebateCache caches debate rows keyed by debate id. A nil *DebateCache is
// valid and disables caching, so callers never have to branch on whether
// Redis is configured.
type DebateCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// Option configures a DebateCache.
type Option func(*DebateCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *DebateCache) {
		c.ttl = ttl
	}
}

// WithPrefix overrides the key prefix. Default is "vocabpro".
func WithPrefix(prefix string) Option {
	return func(c *DebateCache) {
		c.prefix = prefix
	}
}

func New(client *redis.Client, opts ...Option) *DebateCache {
	c := &DebateCache{
		client: client,
		ttl:    defaultTTL,
		prefix: "vocabpro",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DebateCache) key(id string) string {
	return fmt.Sprintf("%s:debate:%s", c.prefix, id)
}

// Get returns the cached debate, or (nil, nil) on a miss.
func (c *DebateCache) Get(ctx context.Context, id string) (*models.Debate, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var debate models.Debate
	if err := json.Unmarshal(data, &debate); err != nil {
		// Corrupt entry: treat as a miss, the store is authoritative.
		return nil, nil
	}
	return &debate, nil
}

// Set stores the debate with the configured TTL.
func (c *DebateCache) Set(ctx context.Context, debate *models.Debate) error {
	if c == nil || c.client == nil || debate == nil {
		return nil
	}

	data, err := json.Marshal(debate)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(debate.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the entry for a debate id.
func (c *DebateCache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
